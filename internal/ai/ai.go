package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/section"
	openai "github.com/sashabaranov/go-openai"
)

var ErrNoSelector = errors.New("no selector in model response")

// SelectorFinder picks the element of a page body that repeats once per
// post, so the page can be marked as a template.
type SelectorFinder interface {
	FindSelector(ctx context.Context, body string) (section.Selector, error)
}

// New creates a SelectorFinder from the given AI config.
func New(cfg *config.AIConfig, apiKey string) (SelectorFinder, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("AI not configured")
	}

	switch cfg.Provider {
	case "claude":
		model := cfg.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		return &claudeProvider{
			apiKey:  apiKey,
			model:   model,
			baseURL: "https://api.anthropic.com",
			client:  &http.Client{Timeout: 60 * time.Second},
		}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return newOpenAIProvider(openai.DefaultConfig(apiKey), model), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: claude, openai)", cfg.Provider)
	}
}

const selectorPrompt = "Below is the <body> of a web page that lists posts, cards or stories. " +
	"Find the HTML element that is repeated once per item. " +
	"Reply with a JSON object inside a ```json code fence with two keys: " +
	"\"tag\" (the element name) and \"class\" (its class attribute). No other text.\n\n%s"

var fenceRe = regexp.MustCompile("(?s)```(?:[a-zA-Z]+)?\\s*(.*?)\\s*```")

// StripCodeFence returns the contents of the first markdown code fence in
// text, or text itself trimmed when there is no fence.
func StripCodeFence(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

func parseSelector(text string) (section.Selector, error) {
	var sel section.Selector
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &sel); err != nil {
		return section.Selector{}, fmt.Errorf("%w: %v", ErrNoSelector, err)
	}
	sel.Tag = strings.Trim(strings.TrimSpace(sel.Tag), "<>")
	sel.Class = strings.TrimSpace(sel.Class)
	if sel.Tag == "" {
		return section.Selector{}, fmt.Errorf("%w: empty tag", ErrNoSelector)
	}
	return sel, nil
}

// --- Claude provider ---

type claudeProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) FindSelector(ctx context.Context, body string) (section.Selector, error) {
	text, err := c.call(ctx, fmt.Sprintf(selectorPrompt, body))
	if err != nil {
		return section.Selector{}, err
	}
	return parseSelector(text)
}

func (c *claudeProvider) call(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(claudeRequest{
		Model:     c.model,
		MaxTokens: 256,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("claude API %d: %s", resp.StatusCode, string(b))
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return cr.Content[0].Text, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(cfg openai.ClientConfig, model string) *openaiProvider {
	return &openaiProvider{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *openaiProvider) FindSelector(ctx context.Context, body string) (section.Selector, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(selectorPrompt, body)},
		},
	})
	if err != nil {
		return section.Selector{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return section.Selector{}, fmt.Errorf("empty openai response")
	}
	return parseSelector(resp.Choices[0].Message.Content)
}

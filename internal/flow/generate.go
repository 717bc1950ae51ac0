package flow

import (
	"context"
	"errors"
	"strings"

	"github.com/GetMystAdmin/hot-pot/internal/config"
)

const postsPrompt = "based upon the personality data given, create 3 personas that this user would like to interact with. " +
	"Then use the News data and use it to create some social media posts. Create one post each. " +
	"These posts will be used by other AI agents. Only provide posts, do not provide any other text including the personas"

const htmlPrompt = "You are a good html programmer. Given a piece of template, and the 3 social media posts. " +
	"Replicate the html code and give it back. Only give html code and nothing else. " +
	"Do not give explaination of the code. Also, if there are names, randomize the names to make it more personal."

var errEmptyOutput = errors.New("flow returned empty text")

// PostsInput is what the post generator flow needs.
type PostsInput struct {
	News        string
	Personality string
}

// HTMLInput is what the HTML builder flow needs.
type HTMLInput struct {
	Posts    string
	Template string
}

// Generator wraps the three flows used by the app. Node ids live in config
// so the flow topology can change without touching callers.
type Generator struct {
	client *Client
	cfg    config.FlowConfig
}

func NewGenerator(client *Client, cfg config.FlowConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// FromConfig builds a Generator from the app config.
func FromConfig(cfg *config.Config) *Generator {
	client := NewClient(Options{
		BaseURL: cfg.Flow.BaseURL,
		Token:   cfg.FlowToken(),
		APIKey:  cfg.Flow.APIKey,
		Timeout: cfg.FlowTimeout(),
	})
	return NewGenerator(client, cfg.Flow)
}

func (in PostsInput) tweaks(cfg config.PostsFlow) Tweaks {
	return Tweaks{
		cfg.NewsNode:        {"input_value": in.News},
		cfg.PersonalityNode: {"input_value": in.Personality},
	}
}

func (in HTMLInput) tweaks(cfg config.HTMLFlow) Tweaks {
	t := Tweaks{cfg.TemplateNode: {}, cfg.PostsNode: {}}
	if in.Template != "" {
		t[cfg.TemplateNode]["input_value"] = in.Template
	}
	if in.Posts != "" {
		t[cfg.PostsNode]["input_value"] = in.Posts
	}
	return t
}

// GeneratePosts asks the post flow for social posts built from news and a
// personality description.
func (g *Generator) GeneratePosts(ctx context.Context, news, personality string) (string, error) {
	in := PostsInput{News: news, Personality: personality}
	return g.text(ctx, g.cfg.Posts.Endpoint, Request{
		InputValue: postsPrompt,
		Tweaks:     in.tweaks(g.cfg.Posts),
	})
}

// BuildHTML asks the HTML flow to rewrite template around posts.
func (g *Generator) BuildHTML(ctx context.Context, posts, template string) (string, error) {
	in := HTMLInput{Posts: posts, Template: template}
	return g.text(ctx, g.cfg.HTML.Endpoint, Request{
		InputValue: htmlPrompt,
		Tweaks:     in.tweaks(g.cfg.HTML),
	})
}

// GenerateScript asks the podcast flow for a dialogue script about topic.
// The raw text is returned; parsing belongs to the caller.
func (g *Generator) GenerateScript(ctx context.Context, topic string) (string, error) {
	return g.text(ctx, g.cfg.Podcast.Endpoint, Request{InputValue: topic})
}

func (g *Generator) text(ctx context.Context, endpoint string, req Request) (string, error) {
	text, err := g.client.RunText(ctx, endpoint, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyOutput
	}
	return text, nil
}

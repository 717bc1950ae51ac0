// Package codegen turns a page screenshot into HTML through a
// screenshot-to-code service reached over a websocket.
package codegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/config"
	"github.com/GetMystAdmin/hot-pot/internal/logger"
	"github.com/GetMystAdmin/hot-pot/internal/retry"
	"github.com/gorilla/websocket"
)

var (
	// ErrNoDocument means an exchange finished without usable code.
	ErrNoDocument = errors.New("code generation produced no document")
	// ErrBackend is an error event reported by the service.
	ErrBackend = errors.New("code generation backend error")
)

type Options struct {
	URL             string
	OutputFormat    string
	Model           string
	ImageGeneration bool
	Variants        int
	Attempts        int
	RetryDelay      time.Duration
}

// OptionsFromConfig maps the codegen config section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:             cfg.Codegen.URL,
		OutputFormat:    cfg.Codegen.OutputFormat,
		Model:           cfg.Codegen.Model,
		ImageGeneration: cfg.Codegen.ImageGeneration,
		Variants:        cfg.Codegen.Variants,
		Attempts:        cfg.Codegen.Attempts,
		RetryDelay:      cfg.CodegenRetryDelay(),
	}
}

type request struct {
	Image                    string  `json:"image"`
	InputMode                string  `json:"inputMode"`
	GenerationType           string  `json:"generationType"`
	GeneratedCodeConfig      string  `json:"generatedCodeConfig"`
	CodeGenerationModel      string  `json:"codeGenerationModel"`
	OpenAIAPIKey             *string `json:"openAiApiKey"`
	OpenAIBaseURL            *string `json:"openAiBaseURL"`
	AnthropicAPIKey          *string `json:"anthropicApiKey"`
	ScreenshotOneAPIKey      *string `json:"screenshotOneApiKey"`
	IsImageGenerationEnabled bool    `json:"isImageGenerationEnabled"`
	EditorTheme              string  `json:"editorTheme"`
	IsTermOfServiceAccepted  bool    `json:"isTermOfServiceAccepted"`
}

type Client struct {
	opts   Options
	dialer *websocket.Dialer
	log    logger.Logger
}

func NewClient(opts Options, log logger.Logger) *Client {
	if opts.Variants < 1 {
		opts.Variants = 2
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = "html_css"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		log:    log,
	}
}

func (c *Client) newRequest(png []byte) request {
	return request{
		Image:                    "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		InputMode:                "image",
		GenerationType:           "create",
		GeneratedCodeConfig:      c.opts.OutputFormat,
		CodeGenerationModel:      c.opts.Model,
		IsImageGenerationEnabled: c.opts.ImageGeneration,
		EditorTheme:              "cobalt",
	}
}

// Generate sends png to the service and returns the first variant. Each
// failed exchange counts against the attempt budget and is followed by the
// configured delay. The final error wraps retry.ErrExhausted and the last
// attempt's error, so ErrNoDocument stays detectable with errors.Is.
func (c *Client) Generate(ctx context.Context, png []byte) (string, error) {
	policy := retry.Constant(c.opts.Attempts, c.opts.RetryDelay)
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn("code generation attempt failed",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("retry_in", wait),
		)
	}
	return retry.Do(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		return c.exchange(ctx, png)
	})
}

func (c *Client) exchange(ctx context.Context, png []byte) (string, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return "", fmt.Errorf("connecting to %s: %w", c.opts.URL, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(c.newRequest(png)); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	acc := NewAccumulator(c.opts.Variants)
	for ev, err := range Events(conn) {
		if err != nil {
			return "", err
		}
		if ev.Type == "status" {
			c.log.Debug("code generation status", logger.Int("variant", ev.VariantIndex), logger.String("status", ev.Value))
		}
		finished, err := acc.Apply(ev)
		if err != nil {
			return "", err
		}
		if finished {
			break
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	c.log.Debug("code generation exchange finished",
		logger.Int("variants_completed", acc.Completed()),
		logger.Bool("image_generation", c.opts.ImageGeneration),
	)
	doc := acc.Variant(0)
	if strings.TrimSpace(doc) == "" {
		return "", ErrNoDocument
	}
	return doc, nil
}

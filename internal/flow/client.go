// Package flow runs generative flows on a Langflow server.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrMalformedResponse = errors.New("malformed flow response")

// Tweaks overrides component settings inside a flow, keyed by node id.
type Tweaks map[string]map[string]any

type Request struct {
	InputValue string `json:"input_value"`
	OutputType string `json:"output_type"`
	InputType  string `json:"input_type"`
	Tweaks     Tweaks `json:"tweaks,omitempty"`
}

// Options configures a Client. Token is sent as a bearer token, APIKey as
// x-api-key; either or both may be empty.
type Options struct {
	BaseURL string
	Token   string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	token   string
	apiKey  string
	client  *http.Client
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		apiKey:  opts.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Run posts req to the flow at endpoint and returns the raw response body.
func (c *Client) Run(ctx context.Context, endpoint string, req Request) ([]byte, error) {
	if req.InputType == "" {
		req.InputType = "chat"
	}
	if req.OutputType == "" {
		req.OutputType = "chat"
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v1/run/%s", c.baseURL, url.PathEscape(endpoint))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("flow %s: reading response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > 1024 {
			data = data[:1024]
		}
		return nil, fmt.Errorf("flow %s: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

// RunText runs the flow and extracts the chat output text.
func (c *Client) RunText(ctx context.Context, endpoint string, req Request) (string, error) {
	data, err := c.Run(ctx, endpoint, req)
	if err != nil {
		return "", err
	}
	return Text(data)
}

type runResponse struct {
	Outputs []struct {
		Outputs []struct {
			Results struct {
				Message struct {
					Data struct {
						Text *string `json:"text"`
					} `json:"data"`
				} `json:"message"`
			} `json:"results"`
		} `json:"outputs"`
	} `json:"outputs"`
}

// Text pulls outputs[0].outputs[0].results.message.data.text out of a run
// response.
func Text(data []byte) (string, error) {
	var r runResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(r.Outputs) == 0 || len(r.Outputs[0].Outputs) == 0 {
		return "", fmt.Errorf("%w: no outputs", ErrMalformedResponse)
	}
	text := r.Outputs[0].Outputs[0].Results.Message.Data.Text
	if text == nil {
		return "", fmt.Errorf("%w: no message text", ErrMalformedResponse)
	}
	return *text, nil
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config holds the endpoint settings for a llama.cpp server speaking the
// OpenAI-compatible chat completions API.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

// Client talks to a single llama.cpp server. The model name is passed through
// as-is; llama.cpp serves whatever model it was started with regardless.
type Client struct {
	api     openai.Client
	http    *http.Client
	baseURL string
	model   string
	temp    float64
}

// New creates a client for the configured endpoint.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("llm base URL is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// llama.cpp does not check the bearer token but the SDK requires one.
		apiKey = "no-key"
	}

	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(base+"/v1"),
			// The dispatcher owns the retry policy; the SDK must not add its
			// own retries underneath it.
			option.WithMaxRetries(0),
		),
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: base,
		model:   cfg.Model,
		temp:    cfg.Temperature,
	}, nil
}

// Complete sends a single-turn chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.temp > 0 {
		params.Temperature = openai.Float(c.temp)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

// Package llm provides the LLM-backed implementation of the engine's
// generator and scoring ports, speaking to any OpenAI-compatible provider.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Config configures the backend client.
type Config struct {
	Provider    string  // openai, deepseek, ollama, or any compatible provider
	Model       string  // e.g. gpt-4o-mini, deepseek-chat
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default 1024
	Temperature float32 // default 0.7
	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64
}

// Client wraps an OpenAI-compatible chat API with rate limiting. Each call
// rides the caller's context, which the engine bounds with its per-call
// timeout.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
	limiter     *rate.Limiter
}

// NewClient creates a backend client for the configured provider.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch cfg.Provider {
	case "deepseek":
		clientConfig.BaseURL = "https://api.deepseek.com"
	case "ollama":
		clientConfig.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		api:         openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
		limiter:     limiter,
	}, nil
}

// Complete sends one system+user exchange and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

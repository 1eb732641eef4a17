package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"reelsmith/internal/config"
)

const (
	openaiMaxRetries  = 3
	openaiRetryDelay  = 3 * time.Second
	openaiTemperature = 0.7
	openaiMaxTokens   = 2048

	jsonSystemPrompt = "You are a helpful assistant that always responds with valid JSON " +
		"when asked for JSON output. Never wrap JSON in markdown code blocks."
)

// OpenAIClient talks to any OpenAI-compatible chat completion API
// (OpenAI, Groq, OpenRouter) through a circuit breaker so a flapping
// upstream fails fast instead of stalling scheduled runs.
type OpenAIClient struct {
	api     *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	sleeper func(time.Duration)
}

// NewOpenAIClient constructs a client for the configured endpoint.
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: openai provider requires an api key")
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := 2 * time.Minute
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm-openai",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &OpenAIClient{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		breaker: breaker,
		sleeper: time.Sleep,
	}, nil
}

// Name identifies the provider.
func (c *OpenAIClient) Name() string { return "openai" }

// Generate runs a chat completion and returns the raw text response.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// GenerateJSON requests a JSON-mode completion and decodes the payload.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, target any) error {
	raw, err := c.complete(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return err
	}
	if err := DecodeJSON(raw, target); err != nil {
		return fmt.Errorf("openai generate: %w", err)
	}
	return nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("openai generate: prompt required")
	}
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: jsonSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    openaiTemperature,
		MaxTokens:      openaiMaxTokens,
		ResponseFormat: format,
	}

	var lastErr error
	for attempt := 1; attempt <= openaiMaxRetries; attempt++ {
		result, err := c.breaker.Execute(func() (any, error) {
			resp, err := c.api.CreateChatCompletion(ctx, req)
			if err != nil {
				return nil, err
			}
			if len(resp.Choices) == 0 {
				return nil, errors.New("empty choices")
			}
			return resp.Choices[0].Message.Content, nil
		})
		if err == nil {
			content := strings.TrimSpace(thinkBlockPattern.ReplaceAllString(result.(string), ""))
			if content == "" {
				return "", errors.New("openai generate: empty response")
			}
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("openai generate: circuit open: %w", err)
		}
		if !isRateLimited(err) || attempt == openaiMaxRetries {
			break
		}
		c.sleeper(openaiRetryDelay * time.Duration(attempt))
	}
	return "", fmt.Errorf("openai generate: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// HealthCheck verifies the API key is usable by listing models.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return c.api.ListModels(ctx)
	})
	if err != nil {
		return fmt.Errorf("openai endpoint not reachable: %w", err)
	}
	return nil
}

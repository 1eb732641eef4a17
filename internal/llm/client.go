package llm

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/config"
)

// Client is the provider-independent surface the pipeline stages use.
type Client interface {
	// Generate returns the raw text completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateJSON generates a completion and decodes the JSON payload it
	// carries into target, applying cleanup and repair passes first.
	GenerateJSON(ctx context.Context, prompt string, target any) error
	// HealthCheck verifies the provider is reachable and usable.
	HealthCheck(ctx context.Context) error
	// Name identifies the provider for logs and health output.
	Name() string
}

// New constructs the client for the configured provider.
func New(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return NewOllamaClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"reelsmith/internal/config"
)

const (
	defaultOllamaTimeout = 5 * time.Minute
	ollamaTemperature    = 0.7
	ollamaNumPredict     = 2048
)

// OllamaClient talks to a local Ollama server over its native HTTP API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// OllamaOption customizes the Ollama client.
type OllamaOption func(*OllamaClient)

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewOllamaClient constructs a client for the configured Ollama server.
func NewOllamaClient(cfg config.LLMConfig, opts ...OllamaOption) *OllamaClient {
	timeout := defaultOllamaTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &OllamaClient{
		baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the provider.
func (c *OllamaClient) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string             `json:"model"`
	Prompt  string             `json:"prompt"`
	Stream  bool               `json:"stream"`
	Options ollamaModelOptions `json:"options"`
}

type ollamaModelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Generate runs a non-streaming completion against /api/generate.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("ollama generate: prompt required")
	}
	payload := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaModelOptions{
			Temperature: ollamaTemperature,
			NumPredict:  ollamaNumPredict,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama generate: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ollama generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return "", fmt.Errorf(
				"ollama generate: cannot connect to Ollama at %s; start it with 'ollama serve': %w",
				c.baseURL, err)
		}
		return "", fmt.Errorf("ollama generate: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama generate: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama generate: api error: %s", decoded.Error)
	}
	content := strings.TrimSpace(thinkBlockPattern.ReplaceAllString(decoded.Response, ""))
	if content == "" {
		return "", errors.New("ollama generate: empty response")
	}
	return content, nil
}

// GenerateJSON generates a completion and decodes its JSON payload.
func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string, target any) error {
	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := DecodeJSON(raw, target); err != nil {
		return fmt.Errorf("ollama generate: %w", err)
	}
	return nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models lists the models available on the server.
func (c *OllamaClient) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama tags: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: http %d", resp.StatusCode)
	}
	var decoded ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ollama tags: decode response: %w", err)
	}
	names := make([]string, 0, len(decoded.Models))
	for _, m := range decoded.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HealthCheck verifies the server responds and the configured model exists.
func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	models, err := c.Models(ctx)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s; start it with 'ollama serve': %w", c.baseURL, err)
	}
	if len(models) == 0 {
		return fmt.Errorf("ollama has no models; run 'ollama pull %s'", c.model)
	}
	for _, name := range models {
		if name == c.model || strings.HasPrefix(name, c.model+":") {
			return nil
		}
	}
	return fmt.Errorf("ollama model %q not found; run 'ollama pull %s'", c.model, c.model)
}

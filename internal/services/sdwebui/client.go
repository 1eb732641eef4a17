package sdwebui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/fileutil"
)

const (
	defaultBaseURL     = "http://127.0.0.1:7860"
	defaultHTTPTimeout = 5 * time.Minute
	defaultSteps       = 20
	defaultMotionModel = "mm_sd_v15_v2.ckpt"
	defaultFrames      = 16
	defaultFPS         = 8

	// txt2img renders at SD-native resolution; the renderer scales and
	// pads to the output frame.
	renderWidth  = 512
	renderHeight = 512
)

// Client wraps the Stable Diffusion WebUI txt2img API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	steps          int
	negativePrompt string
	motionModel    string
	videoFrames    int
	videoFPS       int
}

// Config captures the runtime settings for the WebUI endpoint.
type Config struct {
	BaseURL        string
	Steps          int
	NegativePrompt string
	MotionModel    string
	VideoFrames    int
	VideoFPS       int
	TimeoutSeconds int
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a WebUI client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		steps:          cfg.Steps,
		negativePrompt: cfg.NegativePrompt,
		motionModel:    cfg.MotionModel,
		videoFrames:    cfg.VideoFrames,
		videoFPS:       cfg.VideoFPS,
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.steps <= 0 {
		client.steps = defaultSteps
	}
	if client.motionModel == "" {
		client.motionModel = defaultMotionModel
	}
	if client.videoFrames <= 0 {
		client.videoFrames = defaultFrames
	}
	if client.videoFPS <= 0 {
		client.videoFPS = defaultFPS
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type txt2imgRequest struct {
	Prompt          string         `json:"prompt"`
	NegativePrompt  string         `json:"negative_prompt"`
	Steps           int            `json:"steps"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	AlwaysonScripts map[string]any `json:"alwayson_scripts,omitempty"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
	Detail string   `json:"detail"`
}

// GenerateImage renders a still image for the prompt and writes it to
// outputPath as PNG.
func (c *Client) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	images, err := c.txt2img(ctx, txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: c.negativePrompt,
		Steps:          c.steps,
		Width:          renderWidth,
		Height:         renderHeight,
	})
	if err != nil {
		return err
	}
	return writeAtomic(outputPath, images[0])
}

// GenerateAnimation renders an AnimateDiff GIF for the prompt and writes it
// to outputPath. Requires the AnimateDiff extension on the WebUI side.
func (c *Client) GenerateAnimation(ctx context.Context, prompt, outputPath string) error {
	images, err := c.txt2img(ctx, txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: c.negativePrompt,
		Steps:          c.steps,
		Width:          renderWidth,
		Height:         renderHeight,
		AlwaysonScripts: map[string]any{
			"AnimateDiff": map[string]any{
				"args": []map[string]any{{
					"model":        c.motionModel,
					"format":       []string{"GIF"},
					"enable":       true,
					"video_length": c.videoFrames,
					"fps":          c.videoFPS,
				}},
			},
		},
	})
	if err != nil {
		return err
	}
	return writeAtomic(outputPath, images[0])
}

func (c *Client) txt2img(ctx context.Context, payload txt2imgRequest) ([][]byte, error) {
	if strings.TrimSpace(payload.Prompt) == "" {
		return nil, errors.New("sdwebui txt2img: prompt required")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sdwebui txt2img: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("sdwebui txt2img: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sdwebui txt2img: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sdwebui txt2img: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sdwebui txt2img: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded txt2imgResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("sdwebui txt2img: decode response: %w", err)
	}
	if len(decoded.Images) == 0 {
		detail := decoded.Detail
		if detail == "" {
			detail = "no images in response"
		}
		return nil, fmt.Errorf("sdwebui txt2img: %s", detail)
	}

	out := make([][]byte, 0, len(decoded.Images))
	for i, img := range decoded.Images {
		raw, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return nil, fmt.Errorf("sdwebui txt2img: decode image %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// HealthCheck verifies the WebUI API responds to a model listing request.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sdapi/v1/sd-models", nil)
	if err != nil {
		return fmt.Errorf("sdwebui health: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stable diffusion webui not reachable at %s (start it with --api): %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sdwebui health: http %d", resp.StatusCode)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("sdwebui: write image: %w", err)
	}
	return nil
}

package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"reelsmith/internal/fileutil"
)

const defaultImageSize = "1024x1792"

// OpenAIImages generates scene stills through the OpenAI image API
// (dall-e-3) when a key is configured. Used as the middle step of the
// provider chain.
type OpenAIImages struct {
	api  *openai.Client
	size string
}

// NewOpenAIImages constructs the image client. Size must be a supported
// dall-e-3 size; portrait 1024x1792 suits vertical video.
func NewOpenAIImages(apiKey, size string) (*OpenAIImages, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("imagegen: openai image fallback requires an api key")
	}
	if size == "" {
		size = defaultImageSize
	}
	return &OpenAIImages{api: openai.NewClient(apiKey), size: size}, nil
}

// GenerateImage renders one image for the prompt and writes it to outputPath.
func (c *OpenAIImages) GenerateImage(ctx context.Context, prompt, outputPath string) error {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return fmt.Errorf("imagegen: openai create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return errors.New("imagegen: openai returned no image data")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return fmt.Errorf("imagegen: decode openai image: %w", err)
	}
	if err := fileutil.WriteAtomic(outputPath, raw); err != nil {
		return fmt.Errorf("imagegen: write openai image: %w", err)
	}
	return nil
}

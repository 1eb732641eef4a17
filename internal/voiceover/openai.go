package voiceover

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"reelsmith/internal/fileutil"
)

const defaultSpeechModel = "tts-1"

// OpenAIProvider synthesizes speech through the OpenAI speech API. Results
// are cached on disk keyed by model, voice, and text, since identical
// retries are common when a later stage fails.
type OpenAIProvider struct {
	api      *openai.Client
	model    string
	cacheDir string
}

// NewOpenAIProvider constructs the provider.
func NewOpenAIProvider(apiKey, model, cacheDir string) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("voiceover: openai provider requires an api key")
	}
	if model == "" {
		model = defaultSpeechModel
	}
	return &OpenAIProvider{
		api:      openai.NewClient(apiKey),
		model:    model,
		cacheDir: cacheDir,
	}, nil
}

// Name identifies the provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Available reports whether the provider is usable. The key was validated
// at construction; a network probe per run is not worth an API charge.
func (p *OpenAIProvider) Available(ctx context.Context) error { return nil }

// Synthesize renders the text to an MP3 at req.OutputPath, serving from
// the cache when the same text was synthesized before.
func (p *OpenAIProvider) Synthesize(ctx context.Context, req Request) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return errors.New("voiceover: text required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("voiceover: create output dir: %w", err)
	}

	cachePath := ""
	if p.cacheDir != "" {
		cachePath = filepath.Join(p.cacheDir, p.cacheKey(req.Voice, text)+".mp3")
		if info, err := os.Stat(cachePath); err == nil && info.Size() > 0 {
			return fileutil.CopyFile(cachePath, req.OutputPath)
		}
	}

	resp, err := p.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(p.model),
		Input: text,
		Voice: openai.SpeechVoice(req.Voice),
	})
	if err != nil {
		return fmt.Errorf("voiceover: openai speech: %w", err)
	}
	defer resp.Close()

	tmp := req.OutputPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("voiceover: create output: %w", err)
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("voiceover: write audio: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("voiceover: close output: %w", err)
	}
	if err := os.Rename(tmp, req.OutputPath); err != nil {
		return fmt.Errorf("voiceover: replace output: %w", err)
	}

	if cachePath != "" {
		if err := os.MkdirAll(p.cacheDir, 0o755); err == nil {
			_ = fileutil.CopyFile(req.OutputPath, cachePath)
		}
	}
	return nil
}

func (p *OpenAIProvider) cacheKey(voice, text string) string {
	sum := md5.Sum([]byte(p.model + "|" + voice + "|" + text))
	return hex.EncodeToString(sum[:])
}

package voiceover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EdgeProvider synthesizes speech through the edge-tts CLI (Microsoft Edge
// neural voices, no API key needed).
type EdgeProvider struct {
	binary string
}

// NewEdgeProvider constructs the provider. binary defaults to "edge-tts"
// resolved on PATH.
func NewEdgeProvider(binary string) *EdgeProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "edge-tts"
	}
	return &EdgeProvider{binary: binary}
}

// Name identifies the provider.
func (p *EdgeProvider) Name() string { return "edge" }

// Available checks the edge-tts binary resolves.
func (p *EdgeProvider) Available(ctx context.Context) error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("edge-tts not found; install it with 'pip install edge-tts': %w", err)
	}
	return nil
}

// Synthesize renders the text to an MP3 at req.OutputPath.
func (p *EdgeProvider) Synthesize(ctx context.Context, req Request) error {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return errors.New("edge-tts: text required")
	}
	if req.Voice == "" {
		return errors.New("edge-tts: voice required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("edge-tts: create output dir: %w", err)
	}

	args := []string{"--voice", req.Voice}
	if req.Rate != "" {
		args = append(args, "--rate", req.Rate)
	}
	if req.Pitch != "" {
		args = append(args, "--pitch", req.Pitch)
	}
	args = append(args, "--text", text, "--write-media", req.OutputPath)

	cmd := exec.CommandContext(ctx, p.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(string(output)))
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("edge-tts: output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("edge-tts: output file is empty")
	}
	return nil
}

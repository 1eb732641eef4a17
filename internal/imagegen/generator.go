package imagegen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"reelsmith/internal/logging"
	"reelsmith/internal/services/sdwebui"
)

// Kind identifies which provider produced a scene asset.
type Kind string

const (
	KindAnimation  Kind = "animation"
	KindImage      Kind = "image"
	KindOpenAI     Kind = "openai"
	KindProcedural Kind = "procedural"
)

// Asset is the generated visual for one scene.
type Asset struct {
	Path string
	Kind Kind
}

// Animated reports whether the asset is a GIF animation.
func (a Asset) Animated() bool { return a.Kind == KindAnimation }

// OpenAIImager is the slice of the OpenAI surface the fallback needs.
type OpenAIImager interface {
	GenerateImage(ctx context.Context, prompt, outputPath string) error
}

// Generator runs the provider chain for scene visuals: Stable Diffusion
// WebUI first (animation when enabled, still otherwise), then the OpenAI
// image API when configured, then a procedural gradient card. The chain
// never fails: the procedural fallback always produces something.
type Generator struct {
	webui   *sdwebui.Client
	openai  OpenAIImager
	animate bool
	width   int
	height  int
	logger  *slog.Logger
}

// Options configures a Generator.
type Options struct {
	WebUI   *sdwebui.Client
	OpenAI  OpenAIImager
	Animate bool
	Width   int
	Height  int
	Logger  *slog.Logger
}

// New constructs a Generator.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1080
	}
	if height <= 0 {
		height = 1920
	}
	return &Generator{
		webui:   opts.WebUI,
		openai:  opts.OpenAI,
		animate: opts.Animate,
		width:   width,
		height:  height,
		logger:  logger,
	}
}

// GenerateScene produces the visual asset for one scene, walking the
// provider chain until something succeeds.
func (g *Generator) GenerateScene(ctx context.Context, visual string, sceneNumber int, outputDir string) (Asset, error) {
	prompt := Build3DPrompt(visual)

	if g.webui != nil {
		if g.animate {
			path := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.gif", sceneNumber))
			if err := g.webui.GenerateAnimation(ctx, prompt, path); err == nil {
				return Asset{Path: path, Kind: KindAnimation}, nil
			} else {
				g.logger.Warn("animatediff generation failed, trying still image",
					logging.Int("scene", sceneNumber), logging.Error(err))
			}
		}
		path := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.png", sceneNumber))
		if err := g.webui.GenerateImage(ctx, prompt, path); err == nil {
			return Asset{Path: path, Kind: KindImage}, nil
		} else {
			g.logger.Warn("sd webui generation failed",
				logging.Int("scene", sceneNumber), logging.Error(err))
		}
	}

	if g.openai != nil {
		path := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.png", sceneNumber))
		if err := g.openai.GenerateImage(ctx, prompt, path); err == nil {
			return Asset{Path: path, Kind: KindOpenAI}, nil
		} else {
			g.logger.Warn("openai image generation failed",
				logging.Int("scene", sceneNumber), logging.Error(err))
		}
	}

	if ctx.Err() != nil {
		return Asset{}, ctx.Err()
	}

	path := filepath.Join(outputDir, fmt.Sprintf("scene_%02d.png", sceneNumber))
	if err := RenderCard(visual, g.width, g.height, path); err != nil {
		return Asset{}, fmt.Errorf("imagegen: procedural fallback: %w", err)
	}
	g.logger.Info("using procedural fallback card", logging.Int("scene", sceneNumber))
	return Asset{Path: path, Kind: KindProcedural}, nil
}

package synthesis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"log/slog"

	"reelsmith/internal/config"
	"reelsmith/internal/imagegen"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/script"
	"reelsmith/internal/services"
	"reelsmith/internal/services/sdwebui"
	"reelsmith/internal/stage"
	"reelsmith/internal/voiceover"
)

// ImageGenerator produces the visual asset for one scene.
type ImageGenerator interface {
	GenerateScene(ctx context.Context, visual string, sceneNumber int, outputDir string) (imagegen.Asset, error)
}

// Synthesizer turns a parsed script into per-scene visuals and voiceovers.
type Synthesizer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	images   ImageGenerator
	voice    voiceover.Provider
	selector *voiceover.Selector
	notifier notifications.Service
}

// NewSynthesizer constructs the synthesis stage handler using default dependencies.
func NewSynthesizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Synthesizer, error) {
	voice, err := voiceover.NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	webui := sdwebui.NewClient(sdwebui.Config{
		BaseURL:        cfg.ImageGen.BaseURL,
		Steps:          cfg.ImageGen.Steps,
		NegativePrompt: cfg.ImageGen.NegativePrompt,
		MotionModel:    cfg.ImageGen.MotionModel,
		VideoFrames:    cfg.ImageGen.VideoFrames,
		VideoFPS:       cfg.ImageGen.VideoFPS,
		TimeoutSeconds: cfg.ImageGen.TimeoutSeconds,
	})

	var imager imagegen.OpenAIImager
	if cfg.ImageGen.OpenAIFallback && strings.TrimSpace(cfg.LLM.APIKey) != "" {
		client, err := imagegen.NewOpenAIImages(cfg.LLM.APIKey, cfg.ImageGen.OpenAIImageSize)
		if err != nil {
			return nil, err
		}
		imager = client
	}

	images := imagegen.New(imagegen.Options{
		WebUI:   webui,
		OpenAI:  imager,
		Animate: cfg.ImageGen.AnimateDiff,
		Width:   cfg.Video.Width,
		Height:  cfg.Video.Height,
		Logger:  logger,
	})

	return NewSynthesizerWithDependencies(cfg, store, logger, images, voice, voiceover.NewSelectorFromConfig(cfg), notifications.NewService(cfg)), nil
}

// NewSynthesizerWithDependencies allows injecting collaborators (used in tests).
func NewSynthesizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, images ImageGenerator, voice voiceover.Provider, selector *voiceover.Selector, notifier notifications.Service) *Synthesizer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "synthesis"))
	}
	return &Synthesizer{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		images:   images,
		voice:    voice,
		selector: selector,
		notifier: notifier,
	}
}

func (s *Synthesizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Synthesizing"
	}
	item.ProgressMessage = "Preparing scene synthesis"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting synthesis preparation",
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
	)
	return nil
}

func (s *Synthesizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	scenes, err := stage.ParseScenes(item.ScenesJSON)
	if err != nil {
		return err
	}
	if strings.TrimSpace(item.StagingDir) == "" {
		return services.Wrap(
			services.ErrValidation,
			"synthesizing",
			"validate inputs",
			"No staging directory present; run script generation before synthesis",
			nil,
		)
	}

	logger.Info("starting scene synthesis", logging.Int("scenes", len(scenes)))

	manifest := Manifest{Scenes: make([]SceneAsset, 0, len(scenes))}
	total := len(scenes)
	for idx, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return err
		}

		percent := 5 + float64(idx)/float64(total)*90
		s.updateProgress(ctx, item, fmt.Sprintf("Synthesizing scene %d/%d", scene.Number, total), percent)

		asset, err := s.images.GenerateScene(ctx, scene.Visual, scene.Number, item.StagingDir)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "synthesizing", "generate visual", fmt.Sprintf("Failed to generate visual for scene %d", scene.Number), err)
		}

		record := SceneAsset{
			Scene:     scene.Number,
			Visual:    asset.Path,
			Animated:  asset.Animated(),
			Narration: scene.Narration,
		}

		if audioPath, ok := s.synthesizeAudio(ctx, scene, item.StagingDir, logger); ok {
			record.Audio = audioPath
		}

		manifest.Scenes = append(manifest.Scenes, record)
		logger.Info(
			"scene synthesized",
			logging.Int(logging.FieldScene, scene.Number),
			logging.String("visual_kind", string(asset.Kind)),
			logging.Bool("has_audio", record.Audio != ""),
		)
	}

	if len(manifest.Scenes) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"synthesizing",
			"collect assets",
			"No scenes produced any assets; check the script content",
			nil,
		)
	}

	manifestPath := ManifestPath(item.StagingDir)
	if err := manifest.Save(manifestPath); err != nil {
		return services.Wrap(services.ErrTransient, "synthesizing", "save manifest", "Failed to persist scene asset manifest", err)
	}

	voiced := 0
	for _, record := range manifest.Scenes {
		if !record.Silent() {
			voiced++
		}
	}

	s.updateProgress(ctx, item, "Scene synthesis completed", 100)
	item.ProgressMessage = fmt.Sprintf("Synthesized %d scenes (%d voiced)", len(manifest.Scenes), voiced)
	logger.Info(
		"scene synthesis completed",
		logging.Int("scenes", len(manifest.Scenes)),
		logging.Int("voiced", voiced),
		logging.String("manifest", manifestPath),
	)
	return nil
}

// synthesizeAudio produces the voiceover for one scene. Voiceover failures
// degrade the scene to silent rather than failing the stage; assembly covers
// silent scenes with a fixed display duration.
func (s *Synthesizer) synthesizeAudio(ctx context.Context, scene script.Scene, stagingDir string, logger *slog.Logger) (string, bool) {
	text := strings.TrimSpace(scene.Narration)
	if text == "" || s.voice == nil {
		return "", false
	}

	voice := s.cfg.Voice.NarratorVoice
	if s.selector != nil {
		voice = s.selector.VoiceFor(sceneSpeaker(scene))
	}
	rate, pitch := s.cfg.Voice.Rate, s.cfg.Voice.Pitch
	if rate == "" && pitch == "" {
		rate, pitch = voiceover.ToneAdjustment("normal")
	}

	audioPath := filepath.Join(stagingDir, fmt.Sprintf("scene_%02d.mp3", scene.Number))
	err := s.voice.Synthesize(ctx, voiceover.Request{
		Text:       text,
		Voice:      voice,
		Rate:       rate,
		Pitch:      pitch,
		OutputPath: audioPath,
	})
	if err != nil {
		logger.Warn("voiceover synthesis failed, scene will be silent",
			logging.Int(logging.FieldScene, scene.Number), logging.Error(err))
		return "", false
	}
	return audioPath, true
}

// sceneSpeaker returns the speaker used for voice selection: the sole speaker
// when every line shares one, the narrator otherwise.
func sceneSpeaker(scene script.Scene) string {
	speaker := ""
	for _, line := range scene.Lines {
		if speaker == "" {
			speaker = line.Speaker
			continue
		}
		if !strings.EqualFold(speaker, line.Speaker) {
			return "Narrator"
		}
	}
	if speaker == "" {
		return "Narrator"
	}
	return speaker
}

// HealthCheck verifies the TTS provider is available. Visual generation is
// not probed: every provider in that chain has a fallback.
func (s *Synthesizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "synthesis"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if s.images == nil {
		return stage.Unhealthy(name, "image generator unavailable")
	}
	if s.voice == nil {
		return stage.Unhealthy(name, "voiceover provider unavailable")
	}
	if err := s.voice.Available(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (s *Synthesizer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, s.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := s.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist synthesis progress", logging.Error(err))
		return
	}
	*item = copy
}

package rendering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"reelsmith/internal/config"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/media/ffmpeg"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/synthesis"
	"reelsmith/internal/textutil"
)

const (
	// audioPaddingSeconds is breathing room added after each voiceover.
	audioPaddingSeconds = 0.3
	// silentSceneSeconds is the display time for scenes without audio.
	silentSceneSeconds = 5.0
	// minClipSeconds is the shortest clip worth rendering once the total
	// duration budget is nearly spent.
	minClipSeconds = 1.0
)

// Composer assembles synthesized scene assets into the final vertical video.
type Composer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	renderer *ffmpeg.Renderer
	notifier notifications.Service
	now      func() time.Time
}

// NewComposer constructs the assembly stage handler using default dependencies.
func NewComposer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Composer {
	renderer := ffmpeg.NewRenderer(cfg.FFmpegBinary(), cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS)
	return NewComposerWithDependencies(cfg, store, logger, renderer, notifications.NewService(cfg))
}

// NewComposerWithDependencies allows injecting collaborators (used in tests).
func NewComposerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, renderer *ffmpeg.Renderer, notifier notifications.Service) *Composer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "rendering"))
	}
	return &Composer{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		renderer: renderer,
		notifier: notifier,
		now:      time.Now,
	}
}

func (c *Composer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Composing"
	}
	item.ProgressMessage = "Preparing video assembly"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting assembly preparation",
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
	)
	return nil
}

func (c *Composer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	if strings.TrimSpace(item.StagingDir) == "" {
		return services.Wrap(
			services.ErrValidation,
			"composing",
			"validate inputs",
			"No staging directory present; run synthesis before assembly",
			nil,
		)
	}
	manifest, err := synthesis.LoadManifest(synthesis.ManifestPath(item.StagingDir))
	if err != nil {
		return services.Wrap(services.ErrValidation, "composing", "load manifest", "Scene asset manifest missing or invalid; rerun synthesis", err)
	}
	if len(manifest.Scenes) == 0 {
		return services.Wrap(services.ErrValidation, "composing", "load manifest", "Scene asset manifest is empty; rerun synthesis", nil)
	}

	logger.Info("starting video assembly", logging.Int("scenes", len(manifest.Scenes)))

	clipPaths, err := c.renderClips(ctx, item, manifest, logger)
	if err != nil {
		return err
	}
	if len(clipPaths) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"composing",
			"render clips",
			"No clips fit inside the duration budget; check max_duration_seconds",
			nil,
		)
	}

	c.updateProgress(ctx, item, "Concatenating clips", 80)
	assembled := filepath.Join(item.StagingDir, "final_video.mp4")
	if err := c.renderer.Assemble(ctx, clipPaths, assembled); err != nil {
		return services.Wrap(services.ErrExternalTool, "composing", "concatenate clips", "ffmpeg failed to assemble the final video", err)
	}

	c.updateProgress(ctx, item, "Validating output", 90)
	duration, err := c.validateOutput(ctx, assembled)
	if err != nil {
		return err
	}

	finalPath, err := c.moveToOutput(item, assembled, logger)
	if err != nil {
		return err
	}
	item.VideoFile = finalPath

	c.updateProgress(ctx, item, "Video assembly completed", 100)
	item.ProgressMessage = fmt.Sprintf("Video ready: %s (%.1fs)", filepath.Base(finalPath), duration)
	logger.Info(
		"video assembly completed",
		logging.String("video_file", finalPath),
		logging.Float64("duration_seconds", duration),
		logging.Int("clips", len(clipPaths)),
	)

	if c.notifier != nil {
		if err := c.notifier.Publish(ctx, notifications.EventVideoReady, notifications.Payload{
			"title": item.Label(),
			"file":  filepath.Base(finalPath),
		}); err != nil {
			logger.Warn("video notification failed", logging.Error(err))
		}
	}
	return nil
}

// renderClips renders one clip per scene, trimming to the configured total
// duration budget. Scenes that no longer fit at least minClipSeconds are
// dropped from the end.
func (c *Composer) renderClips(ctx context.Context, item *queue.Item, manifest synthesis.Manifest, logger *slog.Logger) ([]string, error) {
	budget := float64(c.cfg.Video.MaxDurationSeconds)
	if budget <= 0 {
		budget = 30
	}
	remaining := budget

	clipPaths := make([]string, 0, len(manifest.Scenes))
	total := len(manifest.Scenes)
	for idx, scene := range manifest.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if remaining < minClipSeconds {
			logger.Info("duration budget exhausted, dropping remaining scenes",
				logging.Int("rendered", len(clipPaths)), logging.Int("dropped", total-idx))
			break
		}

		duration := c.sceneDuration(ctx, scene, logger)
		if duration > remaining {
			duration = remaining
		}

		percent := 10 + float64(idx)/float64(total)*60
		c.updateProgress(ctx, item, fmt.Sprintf("Rendering clip %d/%d", scene.Scene, total), percent)

		clipPath := filepath.Join(item.StagingDir, fmt.Sprintf("clip_%02d.mp4", scene.Scene))
		clip := ffmpeg.Clip{
			Visual:   scene.Visual,
			Animated: scene.Animated,
			Audio:    scene.Audio,
			Duration: duration,
		}
		if err := c.renderer.RenderClip(ctx, clip, clipPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "composing", "render clip", fmt.Sprintf("ffmpeg failed to render clip for scene %d", scene.Scene), err)
		}
		clipPaths = append(clipPaths, clipPath)
		remaining -= duration
	}
	return clipPaths, nil
}

// sceneDuration derives each scene's display time from its voiceover length.
// Unreadable audio falls back to the silent-scene duration.
func (c *Composer) sceneDuration(ctx context.Context, scene synthesis.SceneAsset, logger *slog.Logger) float64 {
	if scene.Silent() {
		return silentSceneSeconds
	}
	result, err := ffprobe.Inspect(ctx, c.cfg.FFprobeBinary(), scene.Audio)
	if err != nil {
		logger.Warn("ffprobe failed for scene audio, using silent duration",
			logging.Int(logging.FieldScene, scene.Scene), logging.Error(err))
		return silentSceneSeconds
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return silentSceneSeconds
	}
	return duration + audioPaddingSeconds
}

func (c *Composer) validateOutput(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "composing", "validate output", "Assembled video missing from staging directory", err)
	}
	if info.Size() == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "composing", "validate output", "Assembled video is empty", nil)
	}
	result, err := ffprobe.Inspect(ctx, c.cfg.FFprobeBinary(), path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "composing", "validate output", "ffprobe could not inspect the assembled video", err)
	}
	if result.VideoStreamCount() == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "composing", "validate output", "Assembled video has no video stream", nil)
	}
	if result.AudioStreamCount() == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "composing", "validate output", "Assembled video has no audio stream", nil)
	}
	return result.DurationSeconds(), nil
}

// moveToOutput relocates the assembled video into the output directory under
// a topic-derived name, copying across filesystems when rename fails.
func (c *Composer) moveToOutput(item *queue.Item, assembled string, logger *slog.Logger) (string, error) {
	outputDir := strings.TrimSpace(c.cfg.Paths.OutputDir)
	if outputDir == "" {
		return assembled, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Warn("output directory unavailable, keeping video in staging", logging.Error(err))
		return assembled, nil
	}

	target := filepath.Join(outputDir, c.outputFileName(item))
	if err := os.Rename(assembled, target); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if copyErr := fileutil.CopyFileVerified(assembled, target); copyErr != nil {
				return "", services.Wrap(services.ErrTransient, "composing", "move to output", "Failed to copy video into output directory", copyErr)
			}
			if removeErr := os.Remove(assembled); removeErr != nil {
				logger.Warn("failed to remove staging copy after move", logging.Error(removeErr))
			}
		} else {
			return "", services.Wrap(services.ErrTransient, "composing", "move to output", "Failed to move video into output directory", err)
		}
	}
	return target, nil
}

func (c *Composer) outputFileName(item *queue.Item) string {
	slug := textutil.SanitizeFileName(item.Label())
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.Trim(slug, "_-")
	if slug == "" {
		slug = fmt.Sprintf("queue-%d", item.ID)
	}
	return fmt.Sprintf("%s_%s.mp4", slug, c.now().Format("20060102_150405"))
}

// HealthCheck verifies ffmpeg and ffprobe are on the PATH.
func (c *Composer) HealthCheck(ctx context.Context) stage.Health {
	const name = "rendering"
	if c.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	for _, binary := range []string{c.cfg.FFmpegBinary(), c.cfg.FFprobeBinary()} {
		if err := binaryAvailable(binary); err != nil {
			return stage.Unhealthy(name, err.Error())
		}
	}
	return stage.Healthy(name)
}

func binaryAvailable(binary string) error {
	if strings.ContainsRune(binary, os.PathSeparator) {
		if _, err := os.Stat(binary); err != nil {
			return fmt.Errorf("%s not found", binary)
		}
		return nil
	}
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s not found on PATH", binary)
	}
	return nil
}

func (c *Composer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, c.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := c.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist assembly progress", logging.Error(err))
		return
	}
	*item = copy
}

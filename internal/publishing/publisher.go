package publishing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"reelsmith/internal/config"
	"reelsmith/internal/llm"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/youtube"
	"reelsmith/internal/stage"
)

// Uploader is the slice of the YouTube client the stage needs.
type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, error)
	WatchURL(videoID string) string
}

// Publisher uploads assembled videos to YouTube with generated metadata.
type Publisher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   llm.Client
	uploader Uploader
	notifier notifications.Service
	now      func() time.Time
}

// NewPublisher constructs the publishing stage handler using default dependencies.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Publisher, error) {
	client, err := llm.New(cfg.GetLLM())
	if err != nil {
		return nil, err
	}
	uploader := youtube.NewClient(youtube.Config{
		ClientSecretsPath: cfg.Publish.ClientSecrets,
		TokenFilePath:     cfg.Publish.TokenFile,
		TimeoutSeconds:    cfg.Publish.UploadTimeout,
	})
	return NewPublisherWithDependencies(cfg, store, logger, client, uploader, notifications.NewService(cfg)), nil
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client llm.Client, uploader Uploader, notifier notifications.Service) *Publisher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "publishing"))
	}
	return &Publisher{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		client:   client,
		uploader: uploader,
		notifier: notifier,
		now:      time.Now,
	}
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Publishing"
	}
	item.ProgressMessage = "Preparing publication"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting publication preparation",
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
		logging.Bool("upload_enabled", p.cfg.Publish.Enabled),
	)
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	if strings.TrimSpace(item.VideoFile) == "" {
		return services.Wrap(
			services.ErrValidation,
			"publishing",
			"validate inputs",
			"No assembled video present; run assembly before publishing",
			nil,
		)
	}
	if _, err := os.Stat(item.VideoFile); err != nil {
		return services.Wrap(services.ErrValidation, "publishing", "validate inputs", "Assembled video missing from disk", err)
	}

	p.updateProgress(ctx, item, "Generating metadata", 20)
	meta := p.generateMetadata(ctx, item, logger)
	encoded, err := json.Marshal(meta)
	if err != nil {
		return services.Wrap(services.ErrTransient, "publishing", "encode metadata", "Failed to encode upload metadata", err)
	}
	item.MetadataJSON = string(encoded)
	if err := p.store.Update(ctx, item); err != nil {
		logger.Warn("failed to persist upload metadata", logging.Error(err))
	}

	if !p.cfg.Publish.Enabled {
		p.updateProgress(ctx, item, "Publishing disabled", 100)
		item.ProgressMessage = fmt.Sprintf("Upload disabled; video kept at %s", filepath.Base(item.VideoFile))
		logger.Info("publishing disabled, keeping video local", logging.String("video_file", item.VideoFile))
		return nil
	}

	p.updateProgress(ctx, item, "Uploading to YouTube", 40)
	logger.Info(
		"uploading video",
		logging.String("title", meta.Title),
		logging.String("video_file", item.VideoFile),
	)
	videoID, err := p.uploader.Upload(ctx, item.VideoFile, youtube.Metadata{
		Title:         meta.Title,
		Description:   meta.Description,
		Tags:          meta.Tags,
		CategoryID:    p.cfg.Publish.CategoryID,
		PrivacyStatus: p.cfg.Publish.PrivacyStatus,
		MadeForKids:   p.cfg.Publish.MadeForKids,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "publishing", "upload video", "YouTube upload failed", err)
	}
	item.WatchURL = p.uploader.WatchURL(videoID)

	p.updateProgress(ctx, item, "Publication completed", 100)
	item.ProgressMessage = fmt.Sprintf("Published: %s", item.WatchURL)
	logger.Info(
		"publication completed",
		logging.String("video_id", videoID),
		logging.String("watch_url", item.WatchURL),
	)

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, notifications.EventPublished, notifications.Payload{
			"title": meta.Title,
			"url":   item.WatchURL,
		}); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	}
	return nil
}

// generateMetadata asks the language model for upload metadata, falling back
// to canned metadata so publishing never blocks on the generator.
func (p *Publisher) generateMetadata(ctx context.Context, item *queue.Item, logger *slog.Logger) Metadata {
	if p.client == nil {
		return fallbackMetadata(item.Topic, p.now()).normalize()
	}
	var meta Metadata
	prompt := buildMetadataPrompt(item.Label(), item.ScriptText)
	if err := p.client.GenerateJSON(ctx, prompt, &meta); err != nil {
		logger.Warn("metadata generation failed, using fallback", logging.Error(err))
		return fallbackMetadata(item.Topic, p.now()).normalize()
	}
	if strings.TrimSpace(meta.Title) == "" {
		logger.Warn("metadata generation returned empty title, using fallback")
		return fallbackMetadata(item.Topic, p.now()).normalize()
	}
	return meta.normalize()
}

// HealthCheck verifies upload credentials exist when publishing is enabled.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publishing"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if !p.cfg.Publish.Enabled {
		return stage.Health{Name: name, Ready: true, Detail: "upload disabled"}
	}
	if p.uploader == nil {
		return stage.Unhealthy(name, "uploader unavailable")
	}
	for label, path := range map[string]string{
		"client secrets": p.cfg.Publish.ClientSecrets,
		"token file":     p.cfg.Publish.TokenFile,
	} {
		if strings.TrimSpace(path) == "" {
			return stage.Unhealthy(name, label+" not configured")
		}
		if _, err := os.Stat(path); err != nil {
			return stage.Unhealthy(name, label+" missing: "+path)
		}
	}
	return stage.Healthy(name)
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, p.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := p.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist publication progress", logging.Error(err))
		return
	}
	*item = copy
}

package scriptgen

import (
	"context"
	"fmt"
	"math/rand"
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
	"reelsmith/internal/script"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/topics"
)

const (
	maxAttempts      = 3
	retryBackoffBase = 2 * time.Second
	recentAngleSpan  = 8
	recentTitleSpan  = 10
)

// Generator turns a queued topic into a parsed scene script.
type Generator struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   llm.Client
	history  *topics.History
	notifier notifications.Service
	rng      *rand.Rand
	sleep    func(time.Duration)
	now      func() time.Time
}

// NewGenerator constructs the script generation stage handler using default dependencies.
func NewGenerator(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Generator, error) {
	client, err := llm.New(cfg.GetLLM())
	if err != nil {
		return nil, err
	}
	history, err := topics.Open(topics.Options{
		Path:                cfg.Topics.HistoryPath,
		MaxEntries:          cfg.Topics.MaxEntries,
		SimilarityThreshold: cfg.Topics.SimilarityThreshold,
	})
	if err != nil {
		return nil, err
	}
	return NewGeneratorWithDependencies(cfg, store, logger, client, history, notifications.NewService(cfg)), nil
}

// NewGeneratorWithDependencies allows injecting collaborators (used in tests).
func NewGeneratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client llm.Client, history *topics.History, notifier notifications.Service) *Generator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scriptgen"))
	}
	return &Generator{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		client:   client,
		history:  history,
		notifier: notifier,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

func (g *Generator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Scripting"
	}
	item.ProgressMessage = "Preparing script generation"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info(
		"starting script preparation",
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
		logging.String("trigger", item.Trigger),
	)
	return nil
}

func (g *Generator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, g.logger)
	if g.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"scripting",
			"validate inputs",
			"No language model client configured; set llm.provider in your reelsmith config.toml",
			nil,
		)
	}

	stagingDir := item.StagingRoot(g.cfg.Paths.StagingDir)
	if stagingDir == "" {
		return services.Wrap(
			services.ErrConfiguration,
			"scripting",
			"resolve staging dir",
			"Staging directory not configured; set staging_dir in your reelsmith config.toml",
			nil,
		)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "scripting", "ensure staging dir", "Failed to create staging directory", err)
	}
	item.StagingDir = stagingDir

	g.updateProgress(ctx, item, "Selecting angle", 10)

	tried := make([]string, 0, maxAttempts)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		exclude := append(g.history.RecentAngles(recentAngleSpan), tried...)
		angle := script.PickAngle(g.rng, exclude)
		tried = append(tried, angle.Name)

		prompt := script.BuildPrompt(script.PromptInput{
			Angle:        angle,
			Now:          g.now(),
			RecentTopics: g.history.RecentTitles(recentTitleSpan),
			TodayTopics:  g.history.UsedToday(),
			Topic:        item.Topic,
		})

		g.updateProgress(ctx, item, fmt.Sprintf("Generating script (attempt %d/%d)", attempt, maxAttempts), 25)
		logger.Info(
			"requesting script from language model",
			logging.String("angle", angle.Name),
			logging.String("provider", g.client.Name()),
			logging.Int("attempt", attempt),
		)

		raw, err := g.client.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			logger.Warn("script generation attempt failed", logging.Int("attempt", attempt), logging.Error(err))
			g.backoff(ctx, attempt)
			continue
		}

		g.updateProgress(ctx, item, "Parsing scenes", 70)
		scenes := script.Parse(raw)
		if len(scenes) == 0 {
			lastErr = fmt.Errorf("no scenes parsed from %d-character response", len(raw))
			logger.Warn("script response had no usable scenes", logging.Int("attempt", attempt), logging.Int("response_chars", len(raw)))
			g.backoff(ctx, attempt)
			continue
		}

		title := script.ExtractTitle(raw, g.now())
		if item.Topic == "" && g.history.IsDuplicate(title) {
			lastErr = fmt.Errorf("title %q too similar to recent topics", title)
			logger.Warn("generated script duplicates recent topic", logging.String("title", title), logging.Int("attempt", attempt))
			g.backoff(ctx, attempt)
			continue
		}

		return g.finish(ctx, item, raw, scenes, title, angle)
	}

	return services.Wrap(
		services.ErrExternalTool,
		"scripting",
		"generate script",
		fmt.Sprintf("Language model did not return a usable script after %d attempts; check the model endpoint and prompt budget", maxAttempts),
		lastErr,
	)
}

func (g *Generator) finish(ctx context.Context, item *queue.Item, raw string, scenes []script.Scene, title string, angle script.Angle) error {
	logger := logging.WithContext(ctx, g.logger)

	encoded, err := script.EncodeScenes(scenes)
	if err != nil {
		return services.Wrap(services.ErrTransient, "scripting", "encode scenes", "Failed to encode parsed scenes", err)
	}

	item.ScriptText = raw
	item.ScenesJSON = encoded
	item.Angle = angle.Name
	if strings.TrimSpace(item.Topic) == "" {
		item.Topic = title
	}

	scriptPath := filepath.Join(item.StagingDir, "script.txt")
	if err := os.WriteFile(scriptPath, []byte(raw), 0o644); err != nil {
		logger.Warn("failed to write script artifact", logging.Error(err))
	}

	if err := g.history.Add(title, angle.Name); err != nil {
		logger.Warn("failed to record topic history", logging.Error(err))
	}

	g.updateProgress(ctx, item, "Script generation completed", 100)
	item.ProgressMessage = fmt.Sprintf("Script ready: %d scenes", len(scenes))
	logger.Info(
		"script generation completed",
		logging.String("title", title),
		logging.String("angle", angle.Name),
		logging.Int("scenes", len(scenes)),
		logging.Int("script_chars", len(raw)),
	)

	if g.notifier != nil {
		if err := g.notifier.Publish(ctx, notifications.EventScriptReady, notifications.Payload{
			"title":  title,
			"scenes": fmt.Sprintf("%d", len(scenes)),
		}); err != nil {
			logger.Warn("script notification failed", logging.Error(err))
		}
	}
	return nil
}

func (g *Generator) backoff(ctx context.Context, attempt int) {
	if attempt >= maxAttempts {
		return
	}
	if ctx.Err() != nil {
		return
	}
	g.sleep(retryBackoffBase * time.Duration(attempt))
}

// HealthCheck verifies the language model endpoint is reachable and the
// configured model is available.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	const name = "scriptgen"
	if g.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if g.client == nil {
		return stage.Unhealthy(name, "language model client unavailable")
	}
	if err := g.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (g *Generator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, g.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := g.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist script progress", logging.Error(err))
		return
	}
	*item = copy
}

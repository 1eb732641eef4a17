package logging_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// captureLog builds a logger writing to a fresh temp file, runs emit
// against it, and returns the file contents.
func captureLog(t *testing.T, format, level string, emit func(*slog.Logger)) string {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "capture.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	emit(logger)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Debug("debug message")
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	out := captureLog(t, "console", "info", func(logger *slog.Logger) {
		logger.Info("message without caller")
	})
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	out := captureLog(t, "console", "debug", func(logger *slog.Logger) {
		logger.Info("message with caller")
	})
	if !strings.Contains(out, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	out := captureLog(t, "json", "debug", func(logger *slog.Logger) {
		logger.Info("json message", logging.String("k", "v"))
	})
	if !strings.Contains(out, `"msg":"json message"`) {
		t.Fatalf("expected renamed msg key in JSON output, got %q", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("expected lowercase level in JSON output, got %q", out)
	}
}

func TestNewInvalidFormatFails(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt", Level: "info"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, 123)
	ctx = services.WithStage(ctx, "composing")
	ctx = services.WithRequestID(ctx, "req-xyz")

	out := captureLog(t, "console", "info", func(logger *slog.Logger) {
		logging.WithContext(ctx, logger).Info("contextual log")
	})
	for _, want := range []string{"item_id=123", "stage=composing", "correlation_id=req-xyz"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log line, got %q", want, out)
		}
	}
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption mutates the generated test configuration before NewConfig
// returns it. baseDir is the per-test temp root.
type ConfigOption func(tb testing.TB, baseDir string, cfg *config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Publishing and notifications are disabled so tests never reach external
// services by accident.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "videos")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Voice.CacheDir = filepath.Join(base, "voice-cache")
	cfg.Topics.HistoryPath = filepath.Join(base, "topic_history.json")
	cfg.Publish.Enabled = false
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithLLMProvider switches the LLM provider and credentials on the test config.
func WithLLMProvider(provider, baseURL, apiKey string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.LLM.Provider = provider
		cfg.LLM.BaseURL = baseURL
		cfg.LLM.APIKey = apiKey
	}
}

// WithScheduleTimes overrides the scheduled run times on the test config.
func WithScheduleTimes(times ...string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Schedule.Times = times
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. With no names the default external binaries are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(tb testing.TB, baseDir string, _ *config.Config) {
		tb.Helper()
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "edge-tts"}
		}
		prependPath(tb, stubBinaries(tb, baseDir, names))
	}
}

// stubBinaries drops always-succeed shell stubs into baseDir/bin and
// returns that directory.
func stubBinaries(tb testing.TB, baseDir string, names []string) string {
	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		tb.Fatalf("mkdir bin dir: %v", err)
	}
	for _, name := range names {
		stub := filepath.Join(binDir, name)
		if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			tb.Fatalf("write stub %s: %v", name, err)
		}
	}
	return binDir
}

func prependPath(tb testing.TB, dir string) {
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		tb.Fatalf("set PATH: %v", err)
	}
	tb.Cleanup(func() { _ = os.Setenv("PATH", oldPath) })
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}

package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelsmith/internal/config"
)

// writeConfigFile marshals doc as TOML into dir and returns the file path.
func writeConfigFile(t *testing.T, dir string, doc any) string {
	t.Helper()
	data, err := toml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	path := filepath.Join(dir, "reelsmith.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	return path
}

func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "GROQ_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPathsAndAppliesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	clearProviderKeys(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "reelsmith", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "videos", "reelsmith") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("expected default LLM provider ollama, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.OllamaURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama url: %q", cfg.LLM.OllamaURL)
	}
	if cfg.Voice.Provider != "edge" {
		t.Fatalf("expected default voice provider edge, got %q", cfg.Voice.Provider)
	}
	if len(cfg.Voice.CharacterVoices) == 0 {
		t.Fatal("expected default character voices")
	}
	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 {
		t.Fatalf("unexpected video dimensions: %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if !cfg.Schedule.Enabled {
		t.Fatal("expected schedule enabled by default")
	}
	if len(cfg.Schedule.Times) != 2 || cfg.Schedule.Times[0] != "07:00" || cfg.Schedule.Times[1] != "19:00" {
		t.Fatalf("unexpected schedule times: %v", cfg.Schedule.Times)
	}
	if cfg.Publish.Enabled {
		t.Fatal("expected publishing disabled by default")
	}
	if cfg.Workflow.HeartbeatInterval != config.Default().Workflow.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval: %d", cfg.Workflow.HeartbeatInterval)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, statErr)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	type payload struct {
		LLM struct {
			Provider string `toml:"provider"`
			BaseURL  string `toml:"base_url"`
			APIKey   string `toml:"api_key"`
			Model    string `toml:"model"`
		} `toml:"llm"`
		Video struct {
			MaxDurationSeconds int `toml:"max_duration_seconds"`
		} `toml:"video"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.LLM.Provider = "openai"
	custom.LLM.BaseURL = "https://api.groq.com/openai/v1"
	custom.LLM.APIKey = "abc123"
	custom.LLM.Model = "llama-3.3-70b-versatile"
	custom.Video.MaxDurationSeconds = 45
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	configPath := writeConfigFile(t, t.TempDir(), custom)

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}

	got := []struct {
		name, have, want string
	}{
		{"provider", cfg.LLM.Provider, "openai"},
		{"base url", cfg.LLM.BaseURL, "https://api.groq.com/openai/v1"},
		{"api key", cfg.LLM.APIKey, "abc123"},
		{"model", cfg.LLM.Model, "llama-3.3-70b-versatile"},
	}
	for _, g := range got {
		if g.have != g.want {
			t.Errorf("unexpected %s: got %q want %q", g.name, g.have, g.want)
		}
	}
	if cfg.Video.MaxDurationSeconds != 45 {
		t.Errorf("expected max duration 45, got %d", cfg.Video.MaxDurationSeconds)
	}
	if cfg.Workflow.HeartbeatInterval != 20 || cfg.Workflow.HeartbeatTimeout != 200 {
		t.Errorf("unexpected heartbeat settings: interval=%d timeout=%d",
			cfg.Workflow.HeartbeatInterval, cfg.Workflow.HeartbeatTimeout)
	}
}

func TestLLMAPIKeyEnvFallback(t *testing.T) {
	type payload struct {
		LLM struct {
			Provider string `toml:"provider"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.LLM.Provider = "openai"
	configPath := writeConfigFile(t, t.TempDir(), custom)

	clearProviderKeys(t)
	t.Setenv("GROQ_API_KEY", "env-groq")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-groq" {
		t.Fatalf("expected API key from GROQ_API_KEY, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[schedule]") {
		t.Fatalf("sample config missing schedule section: %s", contents)
	}

	// Validate it decodes
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	// On Windows join uses backslashes; skip path expectation specifics when
	// running there to avoid differences in drive letters during CI.
	if runtime.GOOS != "windows" {
		if !strings.Contains(cfg.Paths.StagingDir, "reelsmith") {
			t.Fatalf("expected staging dir to contain reelsmith, got %q", cfg.Paths.StagingDir)
		}
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"unknown LLM provider", func(cfg *config.Config) {
			cfg.LLM.Provider = "bedrock"
		}},
		{"zero heartbeat interval", func(cfg *config.Config) {
			cfg.Workflow.HeartbeatInterval = 0
		}},
		{"heartbeat timeout not above interval", func(cfg *config.Config) {
			cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
		}},
		{"malformed schedule time", func(cfg *config.Config) {
			cfg.Schedule.Times = []string{"7am"}
		}},
		{"unknown timezone", func(cfg *config.Config) {
			cfg.Schedule.Timezone = "Mars/Olympus_Mons"
		}},
		{"odd video width", func(cfg *config.Config) {
			cfg.Video.Width = 1081
		}},
		{"unknown privacy status", func(cfg *config.Config) {
			cfg.Publish.Enabled = true
			cfg.Publish.PrivacyStatus = "secret"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate accepted config with %s", tc.name)
			}
		})
	}
}

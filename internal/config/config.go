package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// LLM contains connection settings for the script and metadata generators.
type LLM struct {
	Provider       string `toml:"provider"`
	OllamaURL      string `toml:"ollama_url"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ImageGen contains configuration for the Stable Diffusion WebUI client and
// its fallbacks.
type ImageGen struct {
	BaseURL         string `toml:"base_url"`
	Steps           int    `toml:"steps"`
	NegativePrompt  string `toml:"negative_prompt"`
	AnimateDiff     bool   `toml:"animatediff"`
	MotionModel     string `toml:"motion_model"`
	VideoFrames     int    `toml:"video_frames"`
	VideoFPS        int    `toml:"video_fps"`
	OpenAIFallback  bool   `toml:"openai_fallback"`
	OpenAIImageSize string `toml:"openai_image_size"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Voice contains text-to-speech configuration.
type Voice struct {
	Provider        string   `toml:"provider"`
	NarratorVoice   string   `toml:"narrator_voice"`
	CharacterVoices []string `toml:"character_voices"`
	Rate            string   `toml:"rate"`
	Pitch           string   `toml:"pitch"`
	EdgeTTSBinary   string   `toml:"edge_tts_binary"`
	OpenAIModel     string   `toml:"openai_model"`
	CacheDir        string   `toml:"cache_dir"`
}

// Video contains output format and assembly settings.
type Video struct {
	Width              int    `toml:"width"`
	Height             int    `toml:"height"`
	FPS                int    `toml:"fps"`
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	FFprobeBinary      string `toml:"ffprobe_binary"`
}

// Schedule contains the automatic generation schedule.
type Schedule struct {
	Enabled  bool     `toml:"enabled"`
	Times    []string `toml:"times"`
	Timezone string   `toml:"timezone"`
}

// Publish contains YouTube upload settings.
type Publish struct {
	Enabled         bool   `toml:"enabled"`
	CategoryID      string `toml:"category_id"`
	PrivacyStatus   string `toml:"privacy_status"`
	MadeForKids     bool   `toml:"made_for_kids"`
	ClientSecrets   string `toml:"client_secrets"`
	TokenFile       string `toml:"token_file"`
	UploadTimeout   int    `toml:"upload_timeout"`
	DefaultPlaylist string `toml:"default_playlist"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	ScriptReady    bool   `toml:"script_ready"`
	VideoReady     bool   `toml:"video_ready"`
	Published      bool   `toml:"published"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Topics contains topic-history settings for duplicate avoidance.
type Topics struct {
	HistoryPath         string  `toml:"history_path"`
	MaxEntries          int     `toml:"max_entries"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: output, staging, and log directories
//   - LLM: script and metadata generation backends
//   - ImageGen: Stable Diffusion WebUI plus fallbacks
//   - Voice: text-to-speech providers and voices
//   - Video: output format and assembly limits
//   - Schedule: unattended twice-daily generation
//   - Publish: YouTube upload settings
//   - Topics: history used for duplicate avoidance
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	ImageGen      ImageGen      `toml:"imagegen"`
	Voice         Voice         `toml:"voice"`
	Video         Video         `toml:"video"`
	Schedule      Schedule      `toml:"schedule"`
	Publish       Publish       `toml:"publish"`
	Topics        Topics        `toml:"topics"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/reelsmith/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OutputDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	if strings.TrimSpace(c.Voice.CacheDir) != "" {
		if err := os.MkdirAll(c.Voice.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create voice cache directory %q: %w", c.Voice.CacheDir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for video assembly.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Video.FFmpegBinary) != "" {
		return c.Video.FFmpegBinary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Video.FFprobeBinary) != "" {
		return c.Video.FFprobeBinary
	}
	return "ffprobe"
}

// EdgeTTSBinary returns the edge-tts executable used for voiceover synthesis.
func (c *Config) EdgeTTSBinary() string {
	if strings.TrimSpace(c.Voice.EdgeTTSBinary) != "" {
		return c.Voice.EdgeTTSBinary
	}
	return "edge-tts"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains resolved LLM connection settings.
type LLMConfig struct {
	Provider       string
	OllamaURL      string
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// GetLLM returns the resolved LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:       strings.TrimSpace(c.LLM.Provider),
		OllamaURL:      strings.TrimSpace(c.LLM.OllamaURL),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		Model:          strings.TrimSpace(c.LLM.Model),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

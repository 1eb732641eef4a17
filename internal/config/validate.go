package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateTopics(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "ollama":
		if strings.TrimSpace(c.LLM.OllamaURL) == "" {
			return errors.New("llm.ollama_url must be set when llm.provider is \"ollama\"")
		}
	case "openai":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/reelsmith/config.toml"
			}
			return fmt.Errorf("llm.api_key is required when llm.provider is \"openai\". Set OPENAI_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
		}
	default:
		return fmt.Errorf("llm.provider must be \"ollama\" or \"openai\", got %q", c.LLM.Provider)
	}
	return nil
}

func (c *Config) validateVoice() error {
	switch c.Voice.Provider {
	case "edge":
	case "openai":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.api_key must be set when voice.provider is \"openai\"")
		}
	default:
		return fmt.Errorf("voice.provider must be \"edge\" or \"openai\", got %q", c.Voice.Provider)
	}
	if len(c.Voice.CharacterVoices) == 0 {
		return errors.New("voice.character_voices must include at least one voice")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even (libx264 yuv420p requirement)")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	for _, value := range c.Schedule.Times {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("schedule.times entry %q must be HH:MM (24h)", value)
		}
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	switch c.Publish.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("publish.privacy_status must be public, unlisted, or private, got %q", c.Publish.PrivacyStatus)
	}
	if strings.TrimSpace(c.Publish.ClientSecrets) == "" {
		return errors.New("publish.client_secrets must be set when publish.enabled is true")
	}
	if strings.TrimSpace(c.Publish.TokenFile) == "" {
		return errors.New("publish.token_file must be set when publish.enabled is true")
	}
	return nil
}

func (c *Config) validateTopics() error {
	if c.Topics.SimilarityThreshold > 1 {
		return errors.New("topics.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"imagegen.timeout_seconds":      c.ImageGen.TimeoutSeconds,
		"publish.upload_timeout":        c.Publish.UploadTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeImageGen()
	if err := c.normalizeVoice(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeSchedule()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	if err := c.normalizeTopics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.OllamaURL = strings.TrimRight(strings.TrimSpace(c.LLM.OllamaURL), "/")
	if c.LLM.OllamaURL == "" {
		c.LLM.OllamaURL = defaultOllamaURL
	}
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, env := range []string{"OPENAI_API_KEY", "GROQ_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(env); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeImageGen() {
	c.ImageGen.BaseURL = strings.TrimRight(strings.TrimSpace(c.ImageGen.BaseURL), "/")
	if c.ImageGen.BaseURL == "" {
		c.ImageGen.BaseURL = defaultSDWebUIURL
	}
	if c.ImageGen.Steps <= 0 {
		c.ImageGen.Steps = defaultSDSteps
	}
	if strings.TrimSpace(c.ImageGen.MotionModel) == "" {
		c.ImageGen.MotionModel = defaultMotionModel
	}
	if c.ImageGen.VideoFrames <= 0 {
		c.ImageGen.VideoFrames = defaultVideoFrames
	}
	if c.ImageGen.VideoFPS <= 0 {
		c.ImageGen.VideoFPS = defaultAnimateDiffFPS
	}
	c.ImageGen.OpenAIImageSize = strings.TrimSpace(c.ImageGen.OpenAIImageSize)
	if c.ImageGen.OpenAIImageSize == "" {
		c.ImageGen.OpenAIImageSize = defaultOpenAIImageSize
	}
	if c.ImageGen.TimeoutSeconds <= 0 {
		c.ImageGen.TimeoutSeconds = defaultImageGenTimeout
	}
}

func (c *Config) normalizeVoice() error {
	var err error
	c.Voice.Provider = strings.ToLower(strings.TrimSpace(c.Voice.Provider))
	if c.Voice.Provider == "" {
		c.Voice.Provider = defaultVoiceProvider
	}
	c.Voice.NarratorVoice = strings.TrimSpace(c.Voice.NarratorVoice)
	if c.Voice.NarratorVoice == "" {
		c.Voice.NarratorVoice = defaultNarratorVoice
	}
	if len(c.Voice.CharacterVoices) == 0 {
		c.Voice.CharacterVoices = defaultCharacterVoices()
	} else {
		voices := make([]string, 0, len(c.Voice.CharacterVoices))
		for _, voice := range c.Voice.CharacterVoices {
			if trimmed := strings.TrimSpace(voice); trimmed != "" {
				voices = append(voices, trimmed)
			}
		}
		if len(voices) == 0 {
			voices = defaultCharacterVoices()
		}
		c.Voice.CharacterVoices = voices
	}
	c.Voice.Rate = strings.TrimSpace(c.Voice.Rate)
	if c.Voice.Rate == "" {
		c.Voice.Rate = defaultVoiceRate
	}
	c.Voice.Pitch = strings.TrimSpace(c.Voice.Pitch)
	if c.Voice.Pitch == "" {
		c.Voice.Pitch = defaultVoicePitch
	}
	if strings.TrimSpace(c.Voice.CacheDir) == "" {
		c.Voice.CacheDir = defaultVoiceCacheDir
	}
	if c.Voice.CacheDir, err = expandPath(c.Voice.CacheDir); err != nil {
		return fmt.Errorf("voice.cache_dir: %w", err)
	}
	c.Voice.OpenAIModel = strings.TrimSpace(c.Voice.OpenAIModel)
	if c.Voice.OpenAIModel == "" {
		c.Voice.OpenAIModel = defaultOpenAITTSModel
	}
	return nil
}

func (c *Config) normalizeVideo() {
	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultVideoFPS
	}
	if c.Video.MaxDurationSeconds <= 0 {
		c.Video.MaxDurationSeconds = defaultMaxDuration
	}
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
}

func (c *Config) normalizeSchedule() {
	if len(c.Schedule.Times) == 0 {
		c.Schedule.Times = defaultScheduleTimes()
	} else {
		times := make([]string, 0, len(c.Schedule.Times))
		seen := make(map[string]struct{}, len(c.Schedule.Times))
		for _, value := range c.Schedule.Times {
			trimmed := strings.TrimSpace(value)
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			times = append(times, trimmed)
		}
		if len(times) == 0 {
			times = defaultScheduleTimes()
		}
		c.Schedule.Times = times
	}
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
}

func (c *Config) normalizePublish() error {
	var err error
	c.Publish.CategoryID = strings.TrimSpace(c.Publish.CategoryID)
	if c.Publish.CategoryID == "" {
		c.Publish.CategoryID = defaultPublishCategory
	}
	c.Publish.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.Publish.PrivacyStatus))
	if c.Publish.PrivacyStatus == "" {
		c.Publish.PrivacyStatus = defaultPublishPrivacy
	}
	if strings.TrimSpace(c.Publish.ClientSecrets) == "" {
		c.Publish.ClientSecrets = defaultClientSecretsPath
	}
	if c.Publish.ClientSecrets, err = expandPath(c.Publish.ClientSecrets); err != nil {
		return fmt.Errorf("publish.client_secrets: %w", err)
	}
	if strings.TrimSpace(c.Publish.TokenFile) == "" {
		c.Publish.TokenFile = defaultTokenFilePath
	}
	if c.Publish.TokenFile, err = expandPath(c.Publish.TokenFile); err != nil {
		return fmt.Errorf("publish.token_file: %w", err)
	}
	if c.Publish.UploadTimeout <= 0 {
		c.Publish.UploadTimeout = defaultUploadTimeout
	}
	return nil
}

func (c *Config) normalizeTopics() error {
	var err error
	if strings.TrimSpace(c.Topics.HistoryPath) == "" {
		c.Topics.HistoryPath = defaultTopicHistoryPath
	}
	if c.Topics.HistoryPath, err = expandPath(c.Topics.HistoryPath); err != nil {
		return fmt.Errorf("topics.history_path: %w", err)
	}
	if c.Topics.MaxEntries <= 0 {
		c.Topics.MaxEntries = defaultTopicMaxEntries
	}
	if c.Topics.SimilarityThreshold <= 0 {
		c.Topics.SimilarityThreshold = defaultTopicSimilarity
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

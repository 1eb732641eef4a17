package config

const (
	defaultOutputDir          = "~/videos/reelsmith"
	defaultStagingDir         = "~/.local/share/reelsmith/staging"
	defaultLogDir             = "~/.local/share/reelsmith/logs"
	defaultLogRetentionDays   = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLLMProvider        = "ollama"
	defaultOllamaURL          = "http://localhost:11434"
	defaultLLMModel           = "qwen2.5:7b"
	defaultLLMTimeoutSeconds  = 180
	defaultSDWebUIURL         = "http://127.0.0.1:7860"
	defaultSDSteps            = 25
	defaultSDNegativePrompt   = "blurry, low quality, watermark, text, deformed"
	defaultMotionModel        = "mm_sd_v15_v2.ckpt"
	defaultVideoFrames        = 16
	defaultAnimateDiffFPS     = 8
	defaultOpenAIImageSize    = "1024x1792"
	defaultImageGenTimeout    = 300
	defaultVoiceProvider      = "edge"
	defaultNarratorVoice      = "en-US-ChristopherNeural"
	defaultVoiceRate          = "-5%"
	defaultVoicePitch         = "-3Hz"
	defaultVoiceCacheDir      = "~/.cache/reelsmith/voice"
	defaultOpenAITTSModel     = "tts-1"
	defaultVideoWidth         = 1080
	defaultVideoHeight        = 1920
	defaultVideoFPS           = 24
	defaultMaxDuration        = 30
	defaultTimezone           = "Asia/Kolkata"
	defaultPublishCategory    = "24"
	defaultPublishPrivacy     = "public"
	defaultClientSecretsPath  = "~/.config/reelsmith/client_secrets.json"
	defaultTokenFilePath      = "~/.config/reelsmith/youtube_token.json"
	defaultUploadTimeout      = 600
	defaultTopicHistoryPath   = "~/.local/share/reelsmith/topic_history.json"
	defaultTopicMaxEntries    = 90
	defaultTopicSimilarity    = 0.6
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultNotifyRequestTO    = 10
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
)

func defaultScheduleTimes() []string {
	return []string{"07:00", "19:00"}
}

func defaultCharacterVoices() []string {
	return []string{
		"en-US-GuyNeural",
		"en-US-JennyNeural",
		"en-GB-RyanNeural",
		"en-AU-NatashaNeural",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			OllamaURL:      defaultOllamaURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		ImageGen: ImageGen{
			BaseURL:         defaultSDWebUIURL,
			Steps:           defaultSDSteps,
			NegativePrompt:  defaultSDNegativePrompt,
			AnimateDiff:     false,
			MotionModel:     defaultMotionModel,
			VideoFrames:     defaultVideoFrames,
			VideoFPS:        defaultAnimateDiffFPS,
			OpenAIFallback:  false,
			OpenAIImageSize: defaultOpenAIImageSize,
			TimeoutSeconds:  defaultImageGenTimeout,
		},
		Voice: Voice{
			Provider:        defaultVoiceProvider,
			NarratorVoice:   defaultNarratorVoice,
			CharacterVoices: defaultCharacterVoices(),
			Rate:            defaultVoiceRate,
			Pitch:           defaultVoicePitch,
			CacheDir:        defaultVoiceCacheDir,
			OpenAIModel:     defaultOpenAITTSModel,
		},
		Video: Video{
			Width:              defaultVideoWidth,
			Height:             defaultVideoHeight,
			FPS:                defaultVideoFPS,
			MaxDurationSeconds: defaultMaxDuration,
		},
		Schedule: Schedule{
			Enabled:  true,
			Times:    defaultScheduleTimes(),
			Timezone: defaultTimezone,
		},
		Publish: Publish{
			Enabled:       false,
			CategoryID:    defaultPublishCategory,
			PrivacyStatus: defaultPublishPrivacy,
			ClientSecrets: defaultClientSecretsPath,
			TokenFile:     defaultTokenFilePath,
			UploadTimeout: defaultUploadTimeout,
		},
		Topics: Topics{
			HistoryPath:         defaultTopicHistoryPath,
			MaxEntries:          defaultTopicMaxEntries,
			SimilarityThreshold: defaultTopicSimilarity,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTO,
			RunStarted:     true,
			ScriptReady:    false,
			VideoReady:     true,
			Published:      true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

package voiceover

import (
	"fmt"
	"strings"

	"reelsmith/internal/config"
)

// NewProvider constructs the configured TTS provider.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.Voice.Provider) {
	case "edge", "":
		return NewEdgeProvider(cfg.EdgeTTSBinary()), nil
	case "openai":
		return NewOpenAIProvider(cfg.LLM.APIKey, cfg.Voice.OpenAIModel, cfg.Voice.CacheDir)
	default:
		return nil, fmt.Errorf("voiceover: unknown provider %q", cfg.Voice.Provider)
	}
}

// Recurring cast members that get a stable voice assignment. Anyone else
// hashes into the character pool.
var knownCharacters = []string{"modi", "rahul", "kejriwal", "yogi", "shah", "common man"}

// NewSelectorFromConfig builds a Selector from the configured narrator voice
// and character pool, assigning pool voices to the recurring cast round-robin.
func NewSelectorFromConfig(cfg *config.Config) *Selector {
	pool := cfg.Voice.CharacterVoices
	characters := make(map[string]string, len(knownCharacters))
	if len(pool) > 0 {
		for i, name := range knownCharacters {
			characters[name] = pool[i%len(pool)]
		}
	}
	return NewSelector(cfg.Voice.NarratorVoice, characters)
}

package voiceover

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
)

// Request describes one synthesis job.
type Request struct {
	Text       string
	Voice      string
	Rate       string
	Pitch      string
	OutputPath string
}

// Provider synthesizes speech to an audio file.
type Provider interface {
	Synthesize(ctx context.Context, req Request) error
	Name() string
	Available(ctx context.Context) error
}

// Tone-driven speech adjustments applied on top of the configured
// rate/pitch baseline. Unknown tones fall back to "normal".
var toneAdjustments = map[string][2]string{
	"excited":  {"+15%", "+10Hz"},
	"angry":    {"+10%", "-5Hz"},
	"sad":      {"-15%", "-10Hz"},
	"confused": {"-5%", "+5Hz"},
	"dramatic": {"-10%", "-5Hz"},
	"scared":   {"+20%", "+15Hz"},
	"laughing": {"+10%", "+10Hz"},
	"whisper":  {"-20%", "-10Hz"},
	"normal":   {"+0%", "+0Hz"},
}

// ToneAdjustment returns the rate and pitch adjustment for a tone.
func ToneAdjustment(tone string) (rate, pitch string) {
	adj, ok := toneAdjustments[strings.ToLower(strings.TrimSpace(tone))]
	if !ok {
		adj = toneAdjustments["normal"]
	}
	return adj[0], adj[1]
}

// Selector maps scene speakers to voices: the narrator voice for narrator
// lines, an explicit mapping for known characters, and a stable hash pick
// from the character pool for anyone else.
type Selector struct {
	narrator   string
	characters map[string]string
	pool       []string
}

// NewSelector builds a Selector from the configured voices.
func NewSelector(narratorVoice string, characterVoices map[string]string) *Selector {
	characters := make(map[string]string, len(characterVoices))
	pool := make([]string, 0, len(characterVoices))
	for name, voice := range characterVoices {
		characters[strings.ToLower(strings.TrimSpace(name))] = voice
	}
	for _, voice := range characterVoices {
		pool = append(pool, voice)
	}
	sort.Strings(pool)
	return &Selector{narrator: narratorVoice, characters: characters, pool: pool}
}

// VoiceFor resolves the voice for a speaker name.
func (s *Selector) VoiceFor(speaker string) string {
	key := strings.ToLower(strings.TrimSpace(speaker))
	if key == "" || key == "narrator" || key == "narration" {
		return s.narrator
	}
	if voice, ok := s.characters[key]; ok {
		return voice
	}
	// Partial match covers "Rahul Gandhi" against a "rahul" mapping.
	for name, voice := range s.characters {
		if strings.Contains(key, name) {
			return voice
		}
	}
	if len(s.pool) == 0 {
		return s.narrator
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.pool[int(h.Sum32())%len(s.pool)]
}

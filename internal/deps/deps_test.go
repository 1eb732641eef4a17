package deps

import (
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}

	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
}

func TestDefaultsMarksEdgeTTSOptionalForOpenAIVoice(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Voice.Provider = "edge-tts"

	reqs := Defaults(cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	byName := make(map[string]Requirement, len(reqs))
	for _, req := range reqs {
		byName[req.Name] = req
	}
	if byName["edge-tts"].Optional {
		t.Fatal("expected edge-tts to be required for the edge-tts provider")
	}
	if byName["FFmpeg"].Optional || byName["FFprobe"].Optional {
		t.Fatal("expected ffmpeg and ffprobe to always be required")
	}

	cfg.Voice.Provider = "openai"
	reqs = Defaults(cfg)
	for _, req := range reqs {
		if req.Name == "edge-tts" && !req.Optional {
			t.Fatal("expected edge-tts to be optional for the openai provider")
		}
	}
}

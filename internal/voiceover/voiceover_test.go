package voiceover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeEdgeStub installs a fake edge-tts binary that records its arguments
// and creates the --write-media target.
func writeEdgeStub(t *testing.T) (binary, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	binary = filepath.Join(dir, "edge-tts")
	argsFile = filepath.Join(dir, "args.txt")
	script := `#!/bin/sh
printf '%s\n' "$@" > ` + argsFile + `
prev=""
for arg in "$@"; do
  if [ "$prev" = "--write-media" ]; then
    printf 'mp3' > "$arg"
  fi
  prev="$arg"
done
exit 0
`
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return binary, argsFile
}

func TestEdgeSynthesize(t *testing.T) {
	binary, argsFile := writeEdgeStub(t)
	provider := NewEdgeProvider(binary)

	out := filepath.Join(t.TempDir(), "voice_01.mp3")
	err := provider.Synthesize(context.Background(), Request{
		Text:       "Swagat hai aapka",
		Voice:      "en-US-ChristopherNeural",
		Rate:       "-5%",
		Pitch:      "-3Hz",
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty output, err=%v", err)
	}

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	args := string(raw)
	for _, want := range []string{"--voice", "en-US-ChristopherNeural", "--rate", "-5%", "--pitch", "-3Hz", "--write-media"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in edge-tts args:\n%s", want, args)
		}
	}
}

func TestEdgeSynthesizeRequiresText(t *testing.T) {
	binary, _ := writeEdgeStub(t)
	provider := NewEdgeProvider(binary)
	err := provider.Synthesize(context.Background(), Request{
		Voice:      "en-US-ChristopherNeural",
		OutputPath: filepath.Join(t.TempDir(), "x.mp3"),
	})
	if err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestEdgeSynthesizeFailure(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "edge-tts")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\necho 'no audio received' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	provider := NewEdgeProvider(binary)
	err := provider.Synthesize(context.Background(), Request{
		Text:       "hello",
		Voice:      "en-US-ChristopherNeural",
		OutputPath: filepath.Join(dir, "x.mp3"),
	})
	if err == nil || !strings.Contains(err.Error(), "no audio received") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestToneAdjustment(t *testing.T) {
	rate, pitch := ToneAdjustment("dramatic")
	if rate != "-10%" || pitch != "-5Hz" {
		t.Fatalf("unexpected dramatic adjustment: %s %s", rate, pitch)
	}
	rate, pitch = ToneAdjustment("unknown tone")
	if rate != "+0%" || pitch != "+0Hz" {
		t.Fatalf("expected normal fallback, got %s %s", rate, pitch)
	}
}

func TestSelectorVoiceFor(t *testing.T) {
	sel := NewSelector("en-US-ChristopherNeural", map[string]string{
		"modi":     "en-IN-PrabhatNeural",
		"kejriwal": "en-IN-NeerjaNeural",
	})

	if got := sel.VoiceFor("Narrator"); got != "en-US-ChristopherNeural" {
		t.Fatalf("narrator: got %q", got)
	}
	if got := sel.VoiceFor(""); got != "en-US-ChristopherNeural" {
		t.Fatalf("empty speaker: got %q", got)
	}
	if got := sel.VoiceFor("Modi"); got != "en-IN-PrabhatNeural" {
		t.Fatalf("exact match: got %q", got)
	}
	if got := sel.VoiceFor("Rahul Gandhi"); got == "" {
		t.Fatal("expected a pooled voice for unmapped speaker")
	}
	first := sel.VoiceFor("Rahul Gandhi")
	if again := sel.VoiceFor("Rahul Gandhi"); again != first {
		t.Fatalf("expected stable voice assignment, got %q then %q", first, again)
	}
}

func TestSelectorPartialMatch(t *testing.T) {
	sel := NewSelector("narrator-voice", map[string]string{"rahul": "voice-rahul"})
	if got := sel.VoiceFor("Rahul Gandhi"); got != "voice-rahul" {
		t.Fatalf("partial match: got %q", got)
	}
}

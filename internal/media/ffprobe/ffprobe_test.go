package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestInspectParsesStubOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}

	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := `#!/bin/sh
cat <<'EOF'
{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2}
  ],
  "format": {"filename": "scene-01.mp4", "nb_streams": 2, "duration": "6.480000"}
}
EOF
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, filepath.Join(dir, "scene-01.mp4"))
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if got := result.VideoStreamCount(); got != 1 {
		t.Fatalf("VideoStreamCount = %d, want 1", got)
	}
	if got := result.AudioStreamCount(); got != 1 {
		t.Fatalf("AudioStreamCount = %d, want 1", got)
	}
	if got := result.DurationSeconds(); got != 6.48 {
		t.Fatalf("DurationSeconds = %v, want 6.48", got)
	}
	if result.Streams[0].Width != 1080 || result.Streams[0].Height != 1920 {
		t.Fatalf("unexpected video dimensions: %+v", result.Streams[0])
	}
}

func TestInspectReportsToolFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}

	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	script := `#!/bin/sh
echo "scene-01.mp4: No such file or directory" >&2
exit 1
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	_, err := Inspect(context.Background(), stub, filepath.Join(dir, "scene-01.mp4"))
	if err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("error should carry tool stderr, got: %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestDurationSecondsToleratesBadValues(t *testing.T) {
	cases := map[string]float64{
		"":        0,
		"N/A":     0,
		"-3.5":    0,
		"12.25":   12.25,
		" 4.0 \n": 4,
	}
	for raw, want := range cases {
		result := Result{Format: Format{Duration: raw}}
		if got := result.DurationSeconds(); got != want {
			t.Fatalf("DurationSeconds(%q) = %v, want %v", raw, got, want)
		}
	}
}

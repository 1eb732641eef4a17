package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Clip describes one scene segment to render.
type Clip struct {
	// Visual is the scene image (PNG) or animation (GIF).
	Visual string
	// Animated loops the visual instead of holding a still frame.
	Animated bool
	// Audio is the voiceover file; empty renders a silent clip.
	Audio string
	// Duration is the clip length in seconds.
	Duration float64
}

// Renderer assembles scene clips into the final vertical video.
type Renderer struct {
	binary string
	width  int
	height int
	fps    int
}

// NewRenderer constructs a Renderer. binary defaults to "ffmpeg".
func NewRenderer(binary string, width, height, fps int) *Renderer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Renderer{binary: binary, width: width, height: height, fps: fps}
}

// scaleFilter fits any input into the output frame, padding to preserve
// aspect ratio. setsar avoids anamorphic output from odd inputs.
func (r *Renderer) scaleFilter() string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		r.width, r.height, r.width, r.height)
}

// RenderClip encodes one scene into an MP4 segment. Every segment carries
// an audio track (real or silent) so the concat join sees uniform streams.
func (r *Renderer) RenderClip(ctx context.Context, clip Clip, outputPath string) error {
	if clip.Visual == "" {
		return errors.New("ffmpeg render: clip visual required")
	}
	if clip.Duration <= 0 {
		return errors.New("ffmpeg render: clip duration must be positive")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ffmpeg render: create output dir: %w", err)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if clip.Animated {
		args = append(args, "-stream_loop", "-1")
	} else {
		args = append(args, "-loop", "1")
	}
	args = append(args, "-i", clip.Visual)
	if clip.Audio != "" {
		args = append(args, "-i", clip.Audio)
	} else {
		args = append(args, "-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100")
	}
	args = append(args,
		"-t", formatSeconds(clip.Duration),
		"-vf", r.scaleFilter(),
		"-r", fmt.Sprintf("%d", r.fps),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, r.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg render clip: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Assemble joins the rendered segments with the concat demuxer and moves
// the moov atom up front so the result streams immediately.
func (r *Renderer) Assemble(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return errors.New("ffmpeg assemble: no clips to join")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("ffmpeg assemble: create output dir: %w", err)
	}

	listPath := outputPath + ".clips.txt"
	if err := writeConcatList(listPath, clipPaths); err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, r.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg assemble: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeConcatList(path string, clips []string) error {
	var b strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return fmt.Errorf("ffmpeg assemble: resolve clip path: %w", err)
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("ffmpeg assemble: write concat list: %w", err)
	}
	return nil
}

// escapeConcatPath escapes single quotes for the concat demuxer list
// format: ' closes the quote, \' emits the quote, ' reopens it.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}

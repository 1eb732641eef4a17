// Package ffprobe wraps the ffprobe binary to inspect rendered scene and
// voiceover files. The composer uses it to size scene clips against their
// narration tracks and to verify the final video carries both streams.
package ffprobe

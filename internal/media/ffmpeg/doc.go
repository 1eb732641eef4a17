// Package ffmpeg renders scene clips and assembles them into the final
// vertical video. Each scene becomes an MP4 segment (still or looped GIF
// plus voiceover, silent scenes get a null audio track), and the segments
// are joined with the concat demuxer.
package ffmpeg

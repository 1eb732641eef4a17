// Package rendering implements the third pipeline stage: assembling
// synthesized scene assets into the final vertical video.
//
// Each scene becomes one clip whose display time follows its voiceover
// length, with a fixed duration for silent scenes and a hard cap on the total
// runtime. Clips are concatenated with ffmpeg, the result is validated with
// ffprobe, and the finished video is moved into the output directory.
package rendering

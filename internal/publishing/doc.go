// Package publishing implements the final pipeline stage: generating upload
// metadata and pushing the assembled video to YouTube.
//
// Metadata comes from the language model with a canned fallback, so a broken
// generator never blocks a finished video. When uploads are disabled in
// config the stage records the metadata and completes with the video kept
// locally.
package publishing

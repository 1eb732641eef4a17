// Package imagegen runs the scene visual provider chain: Stable Diffusion
// WebUI (AnimateDiff animation or still image), the OpenAI image API when a
// key is configured, and finally a procedural gradient card drawn in-process.
// The chain never fails outright, so one flaky provider cannot sink a
// scheduled run.
package imagegen

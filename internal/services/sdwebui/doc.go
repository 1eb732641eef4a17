// Package sdwebui wraps the Stable Diffusion WebUI txt2img API for scene
// image generation, including AnimateDiff animations when the extension is
// installed. The WebUI must be started with --api.
package sdwebui

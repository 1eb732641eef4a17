package imagegen

import "fmt"

const maxPromptLength = 2000

// Build3DPrompt wraps a scene visual in the house style prompt used for
// every provider.
func Build3DPrompt(visual string) string {
	prompt := fmt.Sprintf(
		"3D cartoon animation scene in Pixar DreamWorks style, "+
			"cinematic lighting, dramatic camera angles, vibrant saturated colors, "+
			"ultra-detailed 3D render, professional quality, no text or watermarks. "+
			"Scene: %s", visual)
	if len(prompt) > maxPromptLength {
		prompt = prompt[:maxPromptLength]
	}
	return prompt
}

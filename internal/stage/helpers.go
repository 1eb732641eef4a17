package stage

import (
	"reelsmith/internal/script"
	"reelsmith/internal/services"
)

// ParseScenes parses a stored scene list and returns the scenes.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseScenes(raw string) ([]script.Scene, error) {
	scenes, err := script.DecodeScenes(raw)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "parse scenes",
			"Scene list missing or invalid; rerun script generation", err)
	}
	return scenes, nil
}

package script

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Line is a single spoken line within a scene.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Scene is one renderable unit of a script: a visual prompt plus the
// narration spoken over it.
type Scene struct {
	Number    int    `json:"number"`
	Visual    string `json:"visual"`
	Narration string `json:"narration"`
	Lines     []Line `json:"lines,omitempty"`
}

// Silent reports whether the scene has no spoken narration.
func (s Scene) Silent() bool {
	return strings.TrimSpace(s.Narration) == ""
}

// EncodeScenes serializes scenes for queue storage.
func EncodeScenes(scenes []Scene) (string, error) {
	data, err := json.Marshal(scenes)
	if err != nil {
		return "", fmt.Errorf("encode scenes: %w", err)
	}
	return string(data), nil
}

// DecodeScenes deserializes a stored scene list. An empty payload or an
// empty list is an error: every synthesized item must carry scenes.
func DecodeScenes(raw string) ([]Scene, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("scene list is empty")
	}
	var scenes []Scene
	if err := json.Unmarshal([]byte(raw), &scenes); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("scene list contains no scenes")
	}
	return scenes, nil
}

package synthesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"reelsmith/internal/fileutil"
)

// ManifestName is the staging-dir file recording per-scene artifacts for the
// assembly stage.
const ManifestName = "assets.json"

// SceneAsset records the generated artifacts for one scene.
type SceneAsset struct {
	Scene     int    `json:"scene"`
	Visual    string `json:"visual"`
	Animated  bool   `json:"animated"`
	Audio     string `json:"audio,omitempty"`
	Narration string `json:"narration,omitempty"`
}

// Silent reports whether the scene has no voiceover.
func (a SceneAsset) Silent() bool { return a.Audio == "" }

// Manifest is the ordered list of scene assets produced by synthesis.
type Manifest struct {
	Scenes []SceneAsset `json:"scenes"`
}

// ManifestPath returns the manifest location inside a staging directory.
func ManifestPath(stagingDir string) string {
	return filepath.Join(stagingDir, ManifestName)
}

// Save writes the manifest atomically.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("synthesis: encode manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("synthesis: write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by the synthesis stage.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("synthesis: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("synthesis: decode manifest: %w", err)
	}
	return m, nil
}

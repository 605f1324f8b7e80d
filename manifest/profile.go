package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// The player profile is saved as JSON separately from the TOML
// manifest, so the engine can write it back without round-tripping the
// hand-edited config.

// SaveProfile writes the player profile to path, creating parent
// directories as needed.
func SaveProfile(p Player, path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize profile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// LoadProfile reads a player profile written by SaveProfile.
func LoadProfile(path string) (Player, error) {
	var p Player
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return p, nil
}

// Package manifest handles spellbook.toml configuration: the forms a
// spell may take and the player profile.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ManifestName is the configuration file looked for in the config dir.
const ManifestName = "spellbook.toml"

// Manifest is a parsed spellbook.toml.
type Manifest struct {
	Player Player `toml:"player"`

	// Forms is keyed by form id. TOML table keys are strings; they must
	// parse as unsigned integers.
	Forms map[uint64]Form `toml:"-"`

	// Dir is the directory containing the spellbook.toml file (set at
	// load time).
	Dir string `toml:"-"`
}

// Player is the player profile section.
type Player struct {
	Color [3]float64 `toml:"color"`
}

// Form describes one form a spell can take: the engine scene to
// instance and the energy a take_form cast requires.
type Form struct {
	Path           string  `toml:"path"`
	EnergyRequired float64 `toml:"energy-required"`
}

// stringManifest is the raw TOML shape before form keys are parsed.
type stringManifest struct {
	Player Player          `toml:"player"`
	Forms  map[string]Form `toml:"forms"`
}

// Load parses a spellbook.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var raw stringManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m := &Manifest{Player: raw.Player, Forms: make(map[uint64]Form, len(raw.Forms))}
	for key, form := range raw.Forms {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("form key %q in %s is not an unsigned integer", key, path)
		}
		m.Forms[id] = form
	}

	for i, c := range m.Player.Color {
		if c < 0 || c > 1 {
			return nil, fmt.Errorf("player color component %d (%g) in %s is outside [0, 1]", i, c, path)
		}
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a spellbook.toml file,
// then loads and returns the manifest. Returns nil if none is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

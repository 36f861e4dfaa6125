package dataset

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Dataset kinds understood by the loaders.
const (
	KindDaily       = "daily"       // one CSV per day, date in the file name
	KindPartitioned = "partitioned" // utc_date=yyyy-mm-dd partition directories
)

// DefaultTileColumn is assumed when a manifest entry names no tile column.
const DefaultTileColumn = "tile_id"

// Source describes one dataset in a city drop.
type Source struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"`
	Path       string   `yaml:"path"`
	TileColumn string   `yaml:"tile_column"`
	Features   []string `yaml:"features"`
}

// Manifest lists the datasets available for one city.
type Manifest struct {
	City    string   `yaml:"city"`
	Sources []Source `yaml:"datasets"`
}

// LoadManifest reads and validates a city dataset manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse manifest %s", path)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest and fills in per-source defaults.
func (m *Manifest) Validate() error {
	if m.City == "" {
		return eris.New("dataset: manifest has no city")
	}
	if len(m.Sources) == 0 {
		return eris.Errorf("dataset: manifest for %s lists no datasets", m.City)
	}
	for i := range m.Sources {
		s := &m.Sources[i]
		if s.Name == "" {
			return eris.Errorf("dataset: manifest for %s: dataset %d has no name", m.City, i)
		}
		if s.Path == "" {
			return eris.Errorf("dataset: manifest for %s: dataset %q has no path", m.City, s.Name)
		}
		if s.Kind != KindDaily && s.Kind != KindPartitioned {
			return eris.Errorf("dataset: manifest for %s: dataset %q has unknown kind %q", m.City, s.Name, s.Kind)
		}
		if len(s.Features) == 0 {
			return eris.Errorf("dataset: manifest for %s: dataset %q lists no features", m.City, s.Name)
		}
		if s.TileColumn == "" {
			s.TileColumn = DefaultTileColumn
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// YAMLProvider persists the three configuration documents as separate YAML
// files on disk: options.yml, stations.yml, and programs.yml under dir.
// Saves are written to a temp file and renamed into place so a crash
// mid-write never leaves a half-written document behind.
type YAMLProvider struct {
	dir string
}

// NewYAMLProvider returns a YAMLProvider rooted at dir.
func NewYAMLProvider(dir string) *YAMLProvider {
	return &YAMLProvider{dir: dir}
}

func (y *YAMLProvider) path(name string) string {
	return filepath.Join(y.dir, name)
}

func writeYAMLAtomic(path string, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// defaultOptions is the bootstrap document written the first time
// LoadOptions finds no options.yml -- a fresh install with no station
// coordinates configured yet, watering at full strength, globally disabled
// until an operator turns the device on via /co.
func defaultOptions() *OptionsData {
	return &OptionsData{
		Name:         "sprinklerd",
		Timezone:     "UTC",
		NumBoards:    1,
		WaterPercent: 100,
	}
}

// LoadOptions reads options.yml, bootstrapping it with defaultOptions on
// first run so a fresh install comes up instead of refusing to start.
func (y *YAMLProvider) LoadOptions() (*OptionsData, error) {
	b, err := os.ReadFile(y.path("options.yml"))
	if os.IsNotExist(err) {
		o := defaultOptions()
		if werr := y.SaveOptions(o); werr != nil {
			return nil, fmt.Errorf("bootstrap options.yml: %w", werr)
		}
		return o, nil
	}
	if err != nil {
		return nil, err
	}
	var o OptionsData
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse options.yml: %w", err)
	}
	return &o, nil
}

// SaveOptions writes options.yml.
func (y *YAMLProvider) SaveOptions(o *OptionsData) error {
	return writeYAMLAtomic(y.path("options.yml"), o)
}

// LoadStations reads stations.yml. A missing file is not an error -- it
// means the device has no stations configured yet.
func (y *YAMLProvider) LoadStations() ([]StationData, error) {
	b, err := os.ReadFile(y.path("stations.yml"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Stations []StationData `yaml:"stations"`
	}
	if err := yaml.Unmarshal(b, &wrapper); err != nil {
		return nil, fmt.Errorf("parse stations.yml: %w", err)
	}
	return wrapper.Stations, nil
}

// SaveStations writes stations.yml.
func (y *YAMLProvider) SaveStations(stations []StationData) error {
	wrapper := struct {
		Stations []StationData `yaml:"stations"`
	}{Stations: stations}
	return writeYAMLAtomic(y.path("stations.yml"), wrapper)
}

// LoadPrograms reads programs.yml, keyed by program id.
func (y *YAMLProvider) LoadPrograms() (map[int]ProgramData, error) {
	b, err := os.ReadFile(y.path("programs.yml"))
	if os.IsNotExist(err) {
		return map[int]ProgramData{}, nil
	}
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Programs map[int]ProgramData `yaml:"programs"`
	}
	if err := yaml.Unmarshal(b, &wrapper); err != nil {
		return nil, fmt.Errorf("parse programs.yml: %w", err)
	}
	if wrapper.Programs == nil {
		wrapper.Programs = map[int]ProgramData{}
	}
	return wrapper.Programs, nil
}

// SavePrograms writes programs.yml.
func (y *YAMLProvider) SavePrograms(programs map[int]ProgramData) error {
	wrapper := struct {
		Programs map[int]ProgramData `yaml:"programs"`
	}{Programs: programs}
	return writeYAMLAtomic(y.path("programs.yml"), wrapper)
}

// IsReadOnly reports false; the YAML provider always supports writes.
func (y *YAMLProvider) IsReadOnly() bool { return false }

// Close is a no-op; the YAML provider holds no open resources.
func (y *YAMLProvider) Close() error { return nil }

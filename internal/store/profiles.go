package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is one named database connection.
type Profile struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// Profiles is the connections file.
type Profiles struct {
	Connections []Profile `yaml:"connections"`
}

// LoadProfiles reads the connections file. A missing file is an empty
// profile set, not an error.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profiles{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read connections: %w", err)
	}
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}
	return &p, nil
}

// Save writes the connections file atomically: marshal to a temp file
// in the same directory, sync, then rename over the original.
func (p *Profiles) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal connections: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".parley-tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace connections: %w", err)
	}
	return nil
}

// Add inserts or replaces a profile by name.
func (p *Profiles) Add(prof Profile) {
	for i, existing := range p.Connections {
		if existing.Name == prof.Name {
			p.Connections[i] = prof
			return
		}
	}
	p.Connections = append(p.Connections, prof)
}

// Remove deletes a profile by name, reporting whether it existed.
func (p *Profiles) Remove(name string) bool {
	for i, prof := range p.Connections {
		if prof.Name == name {
			p.Connections = append(p.Connections[:i], p.Connections[i+1:]...)
			return true
		}
	}
	return false
}

// Find looks a profile up by name.
func (p *Profiles) Find(name string) (Profile, bool) {
	for _, prof := range p.Connections {
		if prof.Name == name {
			return prof, true
		}
	}
	return Profile{}, false
}

// DefaultProfile returns the profile marked default, or the only
// profile when exactly one exists.
func (p *Profiles) DefaultProfile() (Profile, bool) {
	for _, prof := range p.Connections {
		if prof.Default {
			return prof, true
		}
	}
	if len(p.Connections) == 1 {
		return p.Connections[0], true
	}
	return Profile{}, false
}

// SetDefault marks one profile as default and unmarks the rest,
// reporting whether the name existed.
func (p *Profiles) SetDefault(name string) bool {
	found := false
	for i := range p.Connections {
		isIt := p.Connections[i].Name == name
		p.Connections[i].Default = isIt
		found = found || isIt
	}
	return found
}

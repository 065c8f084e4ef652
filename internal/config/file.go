package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working directory
// and the XDG config directory.
const DefaultConfigFile = "scavenger.yaml"

// ErrConfigNotFound is returned when the scavenger file does not exist.
var ErrConfigNotFound = errors.New("scavenger file not found")

// File is the scavenger file: destination models, transform scripts and
// the target definitions.
type File struct {
	Path     string              `yaml:"-"`
	Settings Settings            `yaml:"settings"`
	Models   map[string]ModelDef `yaml:"models"`
	Scripts  map[string]string   `yaml:"scripts"`
	Targets  *RawMap             `yaml:"targets"`
}

// Settings are file-level overrides of runtime defaults.
type Settings struct {
	HashAlgorithm string `yaml:"hash_algorithm"`
	Verbosity     int    `yaml:"verbosity"`
	Render        string `yaml:"render"`
	Paraphraser   string `yaml:"paraphraser"`
}

// ModelDef describes a destination table scraps can be converted into.
type ModelDef struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

// TableName returns the table for model name.
func (d ModelDef) TableName(name string) string {
	if d.Table != "" {
		return d.Table
	}
	return name
}

// LoadFile reads and decodes the scavenger file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// ParseFile decodes a scavenger file from memory.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Targets == nil {
		f.Targets = NewRawMap()
	}
	if f.Models == nil {
		f.Models = make(map[string]ModelDef)
	}
	if f.Scripts == nil {
		f.Scripts = make(map[string]string)
	}
	return &f, nil
}

// TargetNames returns the configured target names in file order.
func (f *File) TargetNames() []string {
	return f.Targets.Keys()
}

// Target returns a copy of the raw definition for name.
func (f *File) Target(name string) (*RawMap, bool) {
	def, ok := f.Targets.Map(name)
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// FindConfigFile resolves the scavenger file location:
//  1. explicit path, if it exists
//  2. ./scavenger.yaml
//  3. $XDG_CONFIG_HOME/scavenger/scavenger.yaml
//
// An empty string means nothing was found.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		for _, name := range []string{DefaultConfigFile, "scavenger.yml"} {
			p := filepath.Join(cwd, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// XDGConfigDir returns the per-user configuration directory.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGDataDir returns the per-user data directory.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

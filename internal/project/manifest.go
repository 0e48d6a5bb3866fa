package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest is a parsed wisp.toml plus its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the wisp.toml schema.
type Config struct {
	Package PackageConfig     `toml:"package"`
	Deps    map[string]string `toml:"deps"` // package name -> directory
}

type PackageConfig struct {
	Name string `toml:"name"`
	Main string `toml:"main"` // root source file, defaults to <name>.wisp
}

// FindManifest walks up from startDir looking for wisp.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "wisp.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses the nearest wisp.toml.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, true, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

// MainFile resolves the manifest's root source file.
func (m *Manifest) MainFile() string {
	main := m.Config.Package.Main
	if main == "" {
		main = m.Config.Package.Name + ".wisp"
	}
	if filepath.IsAbs(main) {
		return main
	}
	return filepath.Join(m.Root, main)
}

// DepDir resolves a dependency directory relative to the manifest root.
func (m *Manifest) DepDir(name string) (string, bool) {
	dir, ok := m.Config.Deps[name]
	if !ok {
		return "", false
	}
	if filepath.IsAbs(dir) {
		return dir, true
	}
	return filepath.Join(m.Root, dir), true
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the per-project archsearch directory.
	DirName = ".archsearch"
	// FileName is the configuration file inside DirName.
	FileName = "config.yaml"
	// EnvConfig overrides the configuration file location.
	EnvConfig = "ARCHSEARCH_CONFIG"
)

// ResolvePath returns the configuration file to load
// Priority order:
//  1. explicit path (the --config flag)
//  2. ARCHSEARCH_CONFIG environment variable
//  3. .archsearch/config.yaml under dir (the working directory when dir is empty)
func ResolvePath(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}
	return filepath.Join(dir, DirName, FileName), nil
}

// Load resolves the configuration path and loads it. An explicitly named file
// must exist; the implicit locations fall back to defaults.
func Load(explicit, dir string) (*Config, string, error) {
	path, err := ResolvePath(explicit, dir)
	if err != nil {
		return nil, "", err
	}
	if explicit != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, path, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, gmerrors.Wrap(err, "failed to encode config")
	}
	return data, nil
}

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return gmerrors.NewConfigError("config", path+" already exists (use --force to overwrite)")
		}
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return gmerrors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gmerrors.Wrap(err, "failed to write config")
	}
	return nil
}

// Package config loads the top-level application configuration. This is
// plumbing around the vault engine, not part of it: it tells the app which
// directory the vault lives in and how the surrounding conveniences behave.
package config

import (
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

type Config struct {
	// VaultDir is the directory holding the encrypted store.
	VaultDir string `yaml:"vault_dir"`
	// ListenAddr is where the extension stub listener binds.
	ListenAddr string `yaml:"listen_addr"`
	// ClipboardTimeoutSeconds is how long a copied secret stays on the
	// clipboard; zero disables the automatic clear.
	ClipboardTimeoutSeconds int `yaml:"clipboard_timeout_seconds"`
}

func Default() Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return Config{
		VaultDir:                filepath.Join(base, "rpm", "passwords"),
		ListenAddr:              "127.0.0.1:8765",
		ClipboardTimeoutSeconds: 30,
	}
}

// DefaultPath is <user config dir>/rpm/config.yaml.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", rpmerr.Wrap(rpmerr.IO, err, "resolve config dir")
	}
	return filepath.Join(base, "rpm", "config.yaml"), nil
}

// Load reads the config at path. A missing file writes the defaults and
// returns them; unknown fields are ignored, absent fields fall back to the
// defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return Config{}, errors.Wrap(err, "write default config")
			}
			return cfg, nil
		}
		return Config{}, rpmerr.Wrap(rpmerr.IO, err, "read config")
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, rpmerr.Wrap(rpmerr.Serialization, err, "parse config")
	}
	if cfg.VaultDir == "" {
		cfg.VaultDir = Default().VaultDir
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = Default().ListenAddr
	}
	return cfg, nil
}

// Save writes the config atomically, creating parent directories.
func Save(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return rpmerr.Wrap(rpmerr.Serialization, err, "encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "create config dir")
	}
	if err := atomicwriter.WriteFile(path, b, 0o600); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "write config")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

func TestLoadMissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != Default().ListenAddr {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not persisted: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Config{VaultDir: "/tmp/v", ListenAddr: "127.0.0.1:9999", ClipboardTimeoutSeconds: 5}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadFillsEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("clipboard_timeout_seconds: 7\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VaultDir == "" || cfg.ListenAddr == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.ClipboardTimeoutSeconds != 7 {
		t.Fatalf("explicit value lost: %+v", cfg)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t-"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	} else if rpmerr.KindOf(err) != rpmerr.Serialization {
		t.Fatalf("expected Serialization kind, got %v", err)
	}
}

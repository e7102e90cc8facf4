package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Notifications.Enabled {
		t.Error("notifications not enabled by default")
	}
	if !cfg.LocalStore.Enabled {
		t.Error("local store not enabled by default")
	}
	if cfg.Token != "" {
		t.Error("default config carries a token")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	cfg := New()
	cfg.PlatformURL = "https://files.internal.example"
	cfg.Token = "tok-123"
	cfg.Notifications.ShowUploadComplete = false
	cfg.LocalStore.Path = "/tmp/items.json"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.PlatformURL != cfg.PlatformURL {
		t.Errorf("platform_url = %q", loaded.PlatformURL)
	}
	if loaded.Token != "tok-123" {
		t.Errorf("token = %q", loaded.Token)
	}
	if loaded.Notifications.ShowUploadComplete {
		t.Error("show_upload_complete not persisted")
	}
	if loaded.LocalStore.Path != "/tmp/items.json" {
		t.Errorf("localstore path = %q", loaded.LocalStore.Path)
	}
}

func TestSaveRestrictsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}

	path := filepath.Join(t.TempDir(), "config")
	cfg := New()
	cfg.Token = "secret"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.PlatformURL = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingPlatformURL) {
		t.Errorf("error = %v, want ErrMissingPlatformURL", err)
	}

	cfg = New()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}

	cfg.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on complete config: %v", err)
	}
}

func TestStorePathFallsBackToDefault(t *testing.T) {
	cfg := New()
	cfg.LocalStore.Path = "/custom/items.json"
	path, err := cfg.StorePath()
	if err != nil || path != "/custom/items.json" {
		t.Errorf("StorePath = %q, %v", path, err)
	}

	cfg.LocalStore.Path = ""
	path, err = cfg.StorePath()
	if err != nil {
		t.Fatalf("StorePath failed: %v", err)
	}
	if filepath.Base(path) != "items.json" {
		t.Errorf("default store path = %q", path)
	}
}

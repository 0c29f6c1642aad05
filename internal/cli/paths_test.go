package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDirDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "") // cacheDir treats empty as unset

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error: %v", err)
	}
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirHonorsXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(base, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestResolveCacheDirPrefersConfigPath(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "pageloom.toml")
	if err := os.WriteFile(cfgFile, []byte("[cache]\npath = \"/var/cache/pageloom\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dir, err := resolveCacheDir(cfgFile)
	if err != nil {
		t.Fatalf("resolveCacheDir() error: %v", err)
	}
	if dir != "/var/cache/pageloom" {
		t.Errorf("resolveCacheDir() = %q, want the configured path", dir)
	}
}

func TestResolveCacheDirFallsBackToXDG(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", base)

	cfgFile := filepath.Join(t.TempDir(), "pageloom.toml")
	if err := os.WriteFile(cfgFile, []byte("[cache]\nbackend = \"file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dir, err := resolveCacheDir(cfgFile)
	if err != nil {
		t.Fatalf("resolveCacheDir() error: %v", err)
	}
	if want := filepath.Join(base, appName); dir != want {
		t.Errorf("resolveCacheDir() = %q, want %q", dir, want)
	}
}

func TestResolveCacheDirBadConfig(t *testing.T) {
	if _, err := resolveCacheDir(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("an explicitly named missing config file must error")
	}
}

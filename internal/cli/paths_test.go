package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/spritepack/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if expected := filepath.Join("/tmp/custom-cache", appName); dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestLoadConfigDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := loadConfig(""); err == nil {
		t.Fatalf("loadConfig should fail without %s", config.DefaultFile)
	}

	data := "[sheets.icons]\ndir = \"icons\"\nimage = \"icons.png\"\n"
	if err := os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if names := cfg.Names(); len(names) != 1 || names[0] != "icons" {
		t.Errorf("Names() = %v", names)
	}
}

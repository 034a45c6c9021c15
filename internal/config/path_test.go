package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/timeline" {
		t.Fatalf("DefaultDataDir() = %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	// os.UserHomeDir fails without HOME on unix
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestDefaultDataDirShape(t *testing.T) {
	got := DefaultDataDir()
	if !filepath.IsAbs(got) && !strings.HasPrefix(got, "./") {
		t.Fatalf("want absolute or ./ path, got %s", got)
	}
	base := strings.ToLower(filepath.Base(got))
	if base != "timeline" && base != ".timeline" && base != "data" {
		t.Fatalf("unexpected directory name in %s", got)
	}
	if again := DefaultDataDir(); again != got {
		t.Fatalf("inconsistent results %s and %s", got, again)
	}
}

func TestIsDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for path, want := range map[string]bool{".": true, "/non/existent/path": false, file: false} {
		if got := isDir(path); got != want {
			t.Fatalf("isDir(%s) = %v want %v", path, got, want)
		}
	}
}

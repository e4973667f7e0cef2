package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_UsesUserConfigDir(t *testing.T) {
	configHome := filepath.Join(t.TempDir(), "cfg")
	t.Setenv("XDG_CONFIG_HOME", configHome)

	paths, err := ResolvePaths("")
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}

	if paths.RootDir != filepath.Join(configHome, Name) {
		t.Fatalf("unexpected root dir: %q", paths.RootDir)
	}
	if paths.ConfigFile != filepath.Join(configHome, Name, ConfigFilename) {
		t.Fatalf("unexpected config file: %q", paths.ConfigFile)
	}
	if paths.CaptureFile != filepath.Join(configHome, Name, CaptureFilename) {
		t.Fatalf("unexpected capture file: %q", paths.CaptureFile)
	}
	if _, err := os.Stat(paths.RootDir); err != nil {
		t.Fatalf("expected root directory to exist: %v", err)
	}
}

func TestResolvePaths_ConfigOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	override := filepath.Join(t.TempDir(), "bench", "..", "smartble.json")

	paths, err := ResolvePaths(override)
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}
	if paths.ConfigFile != filepath.Clean(override) {
		t.Fatalf("expected config override, got %q", paths.ConfigFile)
	}
	if filepath.Base(paths.LogFile) != LogFilename {
		t.Fatalf("override must not move the log file: %q", paths.LogFile)
	}
}

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate keeps Load away from the developer's real config files.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("Timeout: got %s, want 0", cfg.API.Timeout)
	}
	if cfg.UI.Theme != DefaultTheme {
		t.Errorf("Theme: got %q, want %q", cfg.UI.Theme, DefaultTheme)
	}
	if cfg.Serve.Store != DefaultStore {
		t.Errorf("Store: got %q, want %q", cfg.Serve.Store, DefaultStore)
	}
	if cfg.File != "" {
		t.Errorf("File: got %q, want none", cfg.File)
	}
}

func TestPrecedence(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "planner.toml")
	content := `
[api]
base_url = "http://file:1/"
timeout = "3s"

[ui]
theme = "neon"

[log]
level = "warn"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Overrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://file:1" {
		t.Errorf("file BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("file Timeout: got %s", cfg.API.Timeout)
	}
	if cfg.UI.Theme != "neon" {
		t.Errorf("file Theme: got %q", cfg.UI.Theme)
	}
	if cfg.File != path {
		t.Errorf("File: got %q, want %q", cfg.File, path)
	}

	t.Setenv("PLANNER_API_BASE_URL", "http://env:2")
	t.Setenv("PLANNER_UI_THEME", "mono")
	cfg, err = Load(Overrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://env:2" {
		t.Errorf("env BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.UI.Theme != "mono" {
		t.Errorf("env Theme: got %q", cfg.UI.Theme)
	}

	cfg, err = Load(Overrides{ConfigFile: path, BaseURL: "http://flag:3", Verbose: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://flag:3" {
		t.Errorf("flag BaseURL: got %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("verbose Level: got %q, want debug", cfg.Log.Level)
	}
}

func TestProjectFileDiscovery(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("planner.toml", []byte("[serve]\nstore = \"sqlite\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serve.Store != "sqlite" {
		t.Errorf("Store: got %q, want sqlite", cfg.Serve.Store)
	}
}

func TestMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(Overrides{ConfigFile: filepath.Join(t.TempDir(), "nope.toml")}); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestNegativeTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("PLANNER_API_TIMEOUT", "-1s")
	if _, err := Load(Overrides{}); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestWriteExample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sub", "planner.toml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample: %v", err)
	}
	if err := WriteExample(path); err == nil {
		t.Error("second WriteExample should refuse to overwrite")
	}

	cfg, err := Load(Overrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL || cfg.Serve.Addr != DefaultServeAddr {
		t.Errorf("example round trip: got %+v", cfg)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{API: APIConfig{BaseURL: "http://x", Timeout: 2 * time.Second}}
	if err := Encode(&buf, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[api]", `base_url = "http://x"`, `timeout = "2s"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode output missing %q:\n%s", want, out)
		}
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

func TestDefault(t *testing.T) {
	ResetHome()
	t.Setenv("JOPLIN_RUNNER_HOME", "/home/runner")

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.Path != "/home/runner/bin/joplin.AppImage" {
		t.Errorf("unexpected app path %s", cfg.App.Path)
	}
	if cfg.Backend != BackendWebDriver {
		t.Errorf("expected webdriver backend, got %s", cfg.Backend)
	}
	if cfg.KeyDelay != 100*time.Millisecond {
		t.Errorf("expected 100ms key delay, got %v", cfg.KeyDelay)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
app:
  path: /opt/joplin/joplin.AppImage
  args: ["--profile", "/tmp/profile"]
backend: cdp
cdpPort: 9333
api:
  token: abc
timeouts:
  find: 3s
  pollInterval: 50ms
keyDelay: 20ms
display:
  width: 1280
  height: 720
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Path != "/opt/joplin/joplin.AppImage" {
		t.Errorf("unexpected app path %s", cfg.App.Path)
	}
	if len(cfg.App.Args) != 2 || cfg.App.Args[1] != "/tmp/profile" {
		t.Errorf("unexpected args %v", cfg.App.Args)
	}
	if cfg.Backend != BackendCDP || cfg.CDPPort != 9333 {
		t.Errorf("unexpected backend %s:%d", cfg.Backend, cfg.CDPPort)
	}
	if cfg.API.Token != "abc" {
		t.Errorf("expected token abc, got %s", cfg.API.Token)
	}
	if cfg.Timeouts.Find != 3*time.Second || cfg.Timeouts.PollInterval != 50*time.Millisecond {
		t.Errorf("unexpected timeouts %+v", cfg.Timeouts)
	}
	if cfg.KeyDelay != 20*time.Millisecond {
		t.Errorf("expected 20ms key delay, got %v", cfg.KeyDelay)
	}
	// untouched fields keep their defaults
	if cfg.API.BaseURL != "http://localhost:41184" {
		t.Errorf("expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Display.Framerate != 20 || cfg.Display.Width != 1280 {
		t.Errorf("unexpected display %+v", cfg.Display)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("app: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("backend: selenium-grid\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app path", func(c *Config) { c.App.Path = "" }},
		{"missing chromedriver", func(c *Config) { c.Chromedriver.Path = "" }},
		{"zero poll interval", func(c *Config) { c.Timeouts.PollInterval = 0 }},
		{"zero display", func(c *Config) { c.Display.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := Default()
	cfg.Backend = BackendCDP
	cfg.Chromedriver.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("cdp backend does not need chromedriver: %v", err)
	}
}

func TestLoadFromDir_YAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: cdp\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != BackendCDP {
		t.Errorf("expected cdp, got %s", cfg.Backend)
	}
}

func TestLoadFromDir_YML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("cdpPort: 9444\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CDPPort != 9444 {
		t.Errorf("expected 9444, got %d", cfg.CDPPort)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != BackendWebDriver {
		t.Errorf("expected defaults, got backend %s", cfg.Backend)
	}
}

// Package config handles configuration for joplin-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Session backends.
const (
	BackendWebDriver = "webdriver"
	BackendCDP       = "cdp"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	App          AppConfig          `yaml:"app"`
	Chromedriver ChromedriverConfig `yaml:"chromedriver"`
	API          APIConfig          `yaml:"api"`

	Backend string `yaml:"backend"` // webdriver or cdp
	CDPPort int    `yaml:"cdpPort"` // remote debugging port for the cdp backend

	Timeouts TimeoutConfig `yaml:"timeouts"`
	KeyDelay time.Duration `yaml:"keyDelay"` // pause between OS key events
	Display  DisplayConfig `yaml:"display"`

	MenuLayout string `yaml:"menuLayout"` // optional YAML menu description
}

// AppConfig locates the application binary.
type AppConfig struct {
	Path        string   `yaml:"path"`
	DownloadURL string   `yaml:"downloadURL"`
	Version     string   `yaml:"version"`
	Args        []string `yaml:"args"`
}

// ChromedriverConfig locates the chromedriver matching the app's Chrome.
type ChromedriverConfig struct {
	Path        string `yaml:"path"`
	DownloadURL string `yaml:"downloadURL"`
	Port        int    `yaml:"port"` // 0 picks a free port
}

// APIConfig addresses the data API.
type APIConfig struct {
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"token"` // discovered in the UI when empty
}

// TimeoutConfig holds the default waits.
type TimeoutConfig struct {
	Find         time.Duration `yaml:"find"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Startup      time.Duration `yaml:"startup"`
}

// DisplayConfig sizes the virtual display and its recording.
type DisplayConfig struct {
	Number    int `yaml:"number"`
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	Framerate int `yaml:"framerate"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Path:        filepath.Join(GetBinDir(), "joplin.AppImage"),
			DownloadURL: "https://github.com/laurent22/joplin/releases/download/v2.9.17/Joplin-2.9.17.AppImage",
			Version:     "2.9.17",
			Args:        []string{"--profile", "--no-welcome"},
		},
		Chromedriver: ChromedriverConfig{
			Path:        filepath.Join(GetBinDir(), "chromedriver"),
			DownloadURL: "https://chromedriver.storage.googleapis.com/102.0.5005.61/chromedriver_linux64.zip",
		},
		API: APIConfig{
			BaseURL: "http://localhost:41184",
		},
		Backend: BackendWebDriver,
		CDPPort: 9222,
		Timeouts: TimeoutConfig{
			Find:         time.Second,
			PollInterval: 100 * time.Millisecond,
			Startup:      10 * time.Second,
		},
		KeyDelay: 100 * time.Millisecond,
		Display: DisplayConfig{
			Number:    99,
			Width:     1920,
			Height:    1080,
			Framerate: 20,
		},
	}
}

// Load loads configuration from a file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithCause(err).WithMessage("parse " + path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, use defaults
	return Default(), nil
}

// Validate rejects settings the runner cannot work with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendWebDriver, BackendCDP:
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown backend %q (want %s or %s)", c.Backend, BackendWebDriver, BackendCDP))
	}
	if c.App.Path == "" {
		return core.ErrInvalidConfig.WithMessage("app.path is required")
	}
	if c.Backend == BackendWebDriver && c.Chromedriver.Path == "" {
		return core.ErrInvalidConfig.WithMessage("chromedriver.path is required for the webdriver backend")
	}
	if c.Timeouts.PollInterval <= 0 {
		return core.ErrInvalidConfig.WithMessage("timeouts.pollInterval must be positive")
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return core.ErrInvalidConfig.WithMessage("display size must be positive")
	}
	return nil
}

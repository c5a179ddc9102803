package config

import (
	"os"
	"path/filepath"
	"sync"
)

// envHome overrides where the runner keeps its binaries and downloads.
const envHome = "JOPLIN_RUNNER_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the directory holding bin/ (the app image and chromedriver)
// and cache/ (downloads in progress).
//
// JOPLIN_RUNNER_HOME wins when set. An installed runner lives at
// <home>/bin/joplin-runner, so a binary inside a bin directory makes its
// parent the home. A runner started with go run or from a checkout uses the
// working directory. The result is computed once per process.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetBinDir is where the app image and chromedriver are installed by default.
func GetBinDir() string {
	return filepath.Join(GetHome(), "bin")
}

// GetCacheDir is where downloads are staged before they move into bin/.
func GetCacheDir() string {
	return filepath.Join(GetHome(), "cache")
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if dir := filepath.Dir(exe); filepath.Base(dir) == "bin" {
			return filepath.Dir(dir)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// ResetHome forgets the resolved home so tests can change JOPLIN_RUNNER_HOME.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}

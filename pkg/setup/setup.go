// Package setup fetches the binaries a test run needs when they are missing.
package setup

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/config"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// downloadTimeout bounds a single binary download.
var downloadTimeout = 5 * time.Minute

// Chromedriver ensures the chromedriver matching the app's bundled Chrome is
// at cfg.Chromedriver.Path and executable. The zip is downloaded when the
// binary is missing.
//
// The matching version is found from the Electron version in the app's
// package.json and Electron's DEPS file.
func Chromedriver(cfg *config.Config) (string, error) {
	dest := cfg.Chromedriver.Path
	if _, err := os.Stat(dest); err != nil {
		fmt.Println("chromedriver not found. Downloading...")
		tmp, err := download(cfg.Chromedriver.DownloadURL, "chromedriver-*.zip")
		if err != nil {
			return "", fmt.Errorf("failed to download chromedriver: %w", err)
		}
		defer os.Remove(tmp)

		if err := extractFile(tmp, "chromedriver", dest); err != nil {
			return "", fmt.Errorf("failed to extract chromedriver: %w", err)
		}
	}
	if err := ensureExecutable(dest); err != nil {
		return "", err
	}
	return dest, nil
}

// App ensures the application image is at cfg.App.Path and executable.
func App(cfg *config.Config) (string, error) {
	dest := cfg.App.Path
	if _, err := os.Stat(dest); err != nil {
		fmt.Printf("App %s not found. Downloading...\n", cfg.App.Version)
		tmp, err := download(cfg.App.DownloadURL, "app-*.AppImage")
		if err != nil {
			return "", fmt.Errorf("failed to download app: %w", err)
		}
		if err := moveFile(tmp, dest); err != nil {
			os.Remove(tmp)
			return "", err
		}
	}
	if err := ensureExecutable(dest); err != nil {
		return "", err
	}
	return dest, nil
}

// download fetches url into a file under the cache dir and returns its path.
// The caller removes or moves it.
func download(url, pattern string) (string, error) {
	dir := config.GetCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	tmpFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()

	logger.Info("Downloading %s", url)
	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(url)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("download failed: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// extractFile copies the archive member called name to dest.
func extractFile(src, name, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) != name {
			continue
		}
		// Security: only plain relative members
		if strings.Contains(f.Name, "..") {
			return fmt.Errorf("invalid file path: %s", f.Name)
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode()|0700)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return fmt.Errorf("%s not found in archive", name)
}

func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// cross-device: copy instead
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// ensureExecutable restores the executable bit downloads lose.
func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode()&0100 != 0 {
		return nil
	}
	if err := os.Chmod(path, info.Mode()|0111); err != nil {
		return fmt.Errorf("failed to make %s executable: %w", path, err)
	}
	return nil
}

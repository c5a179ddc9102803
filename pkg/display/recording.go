package display

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/config"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// stopSettle gives the encoder time to flush the last frames.
var stopSettle = time.Second

// Recording captures the X display into a video file with ffmpeg.
type Recording struct {
	Binary    string
	Path      string
	Display   string // defaults to $DISPLAY
	Width     int
	Height    int
	Framerate int

	cmd *exec.Cmd
}

// NewRecording creates a recording of the configured display into path.
func NewRecording(path string, cfg config.DisplayConfig) *Recording {
	return &Recording{
		Binary:    "ffmpeg",
		Path:      path,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Framerate: cfg.Framerate,
	}
}

// Args returns the encoder command line.
func (r *Recording) Args() []string {
	display := r.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	return []string{
		"-y", // overwrite automatically
		"-video_size", fmt.Sprintf("%dx%d", r.Width, r.Height),
		"-framerate", strconv.Itoa(r.Framerate),
		"-f", "x11grab",
		"-i", display,
		r.Path,
	}
}

// Start begins recording.
func (r *Recording) Start() error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return fmt.Errorf("%s not available: %w", r.Binary, err)
	}
	logger.Debug("Start recording to %s", r.Path)

	r.cmd = exec.Command(r.Binary, r.Args()...)
	if err := r.cmd.Start(); err != nil {
		r.cmd = nil
		return fmt.Errorf("failed to start recording: %w", err)
	}
	return nil
}

// Stop ends the recording and waits for the encoder to exit.
func (r *Recording) Stop() error {
	if r.cmd == nil {
		return nil
	}
	time.Sleep(stopSettle)
	if err := r.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = r.cmd.Process.Kill()
	}
	// ffmpeg exits non-zero on SIGTERM even when the file is fine
	_ = r.cmd.Wait()
	r.cmd = nil
	logger.Debug("Recording stopped")
	return nil
}

// Grab saves a screenshot of the whole X display to path (PNG) using
// ImageMagick's import.
func Grab(path string) error {
	out, err := exec.Command("import", "-window", "root", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("screen grab: %w: %s", err, out)
	}
	return nil
}

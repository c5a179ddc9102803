// Package display provides the virtual X server the application runs in, a
// screen recording of the run, and full-screen grabs.
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
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Xvfb is a virtual X server. While it runs, $DISPLAY points at it.
type Xvfb struct {
	Binary string
	Number int
	Width  int
	Height int

	cmd         *exec.Cmd
	prevDisplay string
	hadDisplay  bool
}

// NewXvfb creates a server for the configured display size.
func NewXvfb(cfg config.DisplayConfig) *Xvfb {
	return &Xvfb{
		Binary: "Xvfb",
		Number: cfg.Number,
		Width:  cfg.Width,
		Height: cfg.Height,
	}
}

// Name is the $DISPLAY value, e.g. ":99".
func (x *Xvfb) Name() string {
	return ":" + strconv.Itoa(x.Number)
}

// Args returns the server command line.
func (x *Xvfb) Args() []string {
	return []string{
		x.Name(),
		"-screen", "0", fmt.Sprintf("%dx%dx24", x.Width, x.Height),
		"-nolisten", "tcp",
	}
}

func (x *Xvfb) socket() string {
	return fmt.Sprintf("/tmp/.X11-unix/X%d", x.Number)
}

// Start launches the server and waits for its socket.
func (x *Xvfb) Start() error {
	x.cmd = exec.Command(x.Binary, x.Args()...)
	x.cmd.Stdout = logger.GetWriter()
	x.cmd.Stderr = logger.GetWriter()
	if err := x.cmd.Start(); err != nil {
		x.cmd = nil
		return fmt.Errorf("failed to start Xvfb: %w", err)
	}
	logger.Info("Xvfb started (PID: %d) on %s", x.cmd.Process.Pid, x.Name())

	exited := make(chan error, 1)
	go func() { exited <- x.cmd.Wait() }()

	err := wait.For(func() (bool, error) {
		select {
		case err := <-exited:
			return false, fmt.Errorf("Xvfb exited early: %v", err)
		default:
		}
		_, err := os.Stat(x.socket())
		return err == nil, nil
	}, wait.Timeout(10*time.Second), wait.Message("Xvfb socket "+x.socket()+" did not appear"))
	if err != nil {
		_ = x.cmd.Process.Kill()
		x.cmd = nil
		return err
	}

	x.prevDisplay, x.hadDisplay = os.LookupEnv("DISPLAY")
	os.Setenv("DISPLAY", x.Name())
	return nil
}

// Close stops the server and restores $DISPLAY.
func (x *Xvfb) Close() error {
	if x.cmd == nil {
		return nil
	}
	logger.Info("Stopping Xvfb (PID: %d)", x.cmd.Process.Pid)
	if err := x.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = x.cmd.Process.Kill()
	}
	x.cmd = nil

	if x.hadDisplay {
		os.Setenv("DISPLAY", x.prevDisplay)
	} else {
		os.Unsetenv("DISPLAY")
	}
	return nil
}

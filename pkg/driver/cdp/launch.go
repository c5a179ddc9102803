package cdp

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// LaunchOptions describe how to start the application for a CDP session.
type LaunchOptions struct {
	Binary  string
	Args    []string
	Port    int
	Startup time.Duration
}

// Endpoint is the DevTools HTTP endpoint for port.
func Endpoint(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// Launch starts the application with remote debugging enabled and attaches
// to it. Closing the session terminates the application.
func Launch(opts LaunchOptions) (*Session, error) {
	if opts.Port == 0 {
		opts.Port = 9222
	}
	if opts.Startup == 0 {
		opts.Startup = 30 * time.Second
	}

	args := append([]string{fmt.Sprintf("--remote-debugging-port=%d", opts.Port)}, opts.Args...)
	cmd := exec.Command(opts.Binary, args...)
	cmd.Stdout = logger.GetWriter()
	cmd.Stderr = logger.GetWriter()
	logger.Debug("App command: %s %v", opts.Binary, args)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start app: %w", err)
	}
	logger.Info("App process started (PID: %d)", cmd.Process.Pid)

	stop := func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			return cmd.Process.Kill()
		}
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
		}
		return nil
	}

	endpoint := Endpoint(opts.Port)
	if err := waitForEndpoint(endpoint, opts.Startup); err != nil {
		_ = stop()
		return nil, err
	}

	s, err := Connect(endpoint, opts.Startup)
	if err != nil {
		_ = stop()
		return nil, err
	}
	s.onClose = stop
	return s, nil
}

func waitForEndpoint(endpoint string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	return wait.For(func() (bool, error) {
		resp, err := client.Get(endpoint + "/json/version")
		if err != nil {
			return false, nil
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK, nil
	}, wait.Timeout(timeout), wait.Interval(250*time.Millisecond),
		wait.Message("DevTools endpoint "+endpoint+" did not come up"))
}

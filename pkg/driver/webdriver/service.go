package webdriver

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

const serviceStartupTimeout = 30 * time.Second

// Service runs a chromedriver process for the lifetime of a test run.
type Service struct {
	Path string
	Port int

	cmd *exec.Cmd
}

// NewService creates a service for the chromedriver binary at path.
// Port 0 picks a free port on Start.
func NewService(path string, port int) *Service {
	return &Service{Path: path, Port: port}
}

// URL is the base URL clients connect to.
func (s *Service) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.Port)
}

// Start launches chromedriver and waits until it reports ready.
func (s *Service) Start() error {
	if s.Port == 0 {
		port, err := freePort()
		if err != nil {
			return fmt.Errorf("failed to allocate port: %w", err)
		}
		s.Port = port
	}

	s.cmd = exec.Command(s.Path, fmt.Sprintf("--port=%d", s.Port))
	if w := logger.GetWriter(); w != nil {
		s.cmd.Stdout = w
		s.cmd.Stderr = w
	}
	logger.Debug("Chromedriver command: %s %v", s.Path, s.cmd.Args[1:])

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start chromedriver: %w", err)
	}
	logger.Info("Chromedriver started (PID: %d) on port %d", s.cmd.Process.Pid, s.Port)

	client := NewClient(s.URL())
	err := wait.For(func() (bool, error) {
		ready, err := client.Status()
		return err == nil && ready, nil
	}, wait.Timeout(serviceStartupTimeout), wait.Message("chromedriver did not become ready"))
	if err != nil {
		s.Stop()
		return err
	}
	return nil
}

// Stop kills the process. Safe to call more than once.
func (s *Service) Stop() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	logger.Info("Stopping chromedriver (PID: %d)", s.cmd.Process.Pid)
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		s.cmd.Process.Kill()
	}
	done := make(chan struct{})
	go func() {
		s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.cmd.Process.Kill()
		<-done
	}
	s.cmd = nil
	return nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

package display

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/config"
)

func TestXvfbArgs(t *testing.T) {
	x := NewXvfb(config.DisplayConfig{Number: 42, Width: 1920, Height: 1080})
	assert.Equal(t, ":42", x.Name())
	assert.Equal(t, []string{":42", "-screen", "0", "1920x1080x24", "-nolisten", "tcp"}, x.Args())
}

func TestXvfbStart_MissingBinary(t *testing.T) {
	x := NewXvfb(config.DisplayConfig{Number: 42, Width: 10, Height: 10})
	x.Binary = filepath.Join(t.TempDir(), "no-such-xvfb")

	assert.Error(t, x.Start())
	assert.NoError(t, x.Close())
}

func TestRecordingArgs(t *testing.T) {
	r := NewRecording("debug/output.mp4", config.DisplayConfig{Width: 1920, Height: 1080, Framerate: 20})
	r.Display = ":99"
	assert.Equal(t, []string{
		"-y",
		"-video_size", "1920x1080",
		"-framerate", "20",
		"-f", "x11grab",
		"-i", ":99",
		"debug/output.mp4",
	}, r.Args())
}

func TestRecordingArgs_UsesDisplayEnv(t *testing.T) {
	t.Setenv("DISPLAY", ":7")
	r := NewRecording("out.mp4", config.DisplayConfig{Width: 1, Height: 1, Framerate: 1})
	args := r.Args()
	assert.Equal(t, ":7", args[len(args)-2])
}

func TestRecording_StartStop(t *testing.T) {
	old := stopSettle
	stopSettle = 0
	defer func() { stopSettle = old }()

	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 30\n"), 0755))

	r := NewRecording("out.mp4", config.DisplayConfig{Width: 1, Height: 1, Framerate: 1})
	r.Binary = script
	require.NoError(t, r.Start())

	done := make(chan error, 1)
	go func() { done <- r.Stop() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not terminate the recorder")
	}
}

func TestRecording_MissingBinary(t *testing.T) {
	r := NewRecording("out.mp4", config.DisplayConfig{})
	r.Binary = "definitely-not-ffmpeg-binary"
	assert.Error(t, r.Start())
	assert.NoError(t, r.Stop())
}

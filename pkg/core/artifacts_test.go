package core

import (
	"strings"
	"testing"
	"time"
)

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("case_webdriver.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewScreenAttachment(t *testing.T) {
	attachment := NewScreenAttachment("case_xvfb.png", []byte{1})
	if attachment.Name != AttachmentScreen || attachment.ContentType != ContentTypePNG {
		t.Errorf("unexpected attachment %+v", attachment)
	}
}

func TestNewBrowserLogAttachment(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	attachment := NewBrowserLogAttachment("log.txt", []LogEntry{
		{Timestamp: ts, Level: "error", Message: "boom"},
		{Timestamp: ts, Level: "info", Message: "ok"},
	})

	lines := strings.Split(string(attachment.Body), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "03:04:05.000 [error] boom" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if attachment.ContentType != ContentTypeText {
		t.Errorf("ContentType = %s", attachment.ContentType)
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.ShouldCapture(StatusFailed) || !cfg.ShouldCapture(StatusErrored) {
		t.Error("default config captures failures")
	}
	if !cfg.ShouldCapture(StatusFlaky) {
		t.Error("default config captures flaky cases")
	}
	if cfg.ShouldCapture(StatusPassed) || cfg.ShouldCapture(StatusSkipped) {
		t.Error("default config ignores passed and skipped")
	}

	cfg.CaptureOnFailure = false
	if cfg.ShouldCapture(StatusFailed) {
		t.Error("CaptureOnFailure=false should disable capture")
	}
}

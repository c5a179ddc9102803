// Package core provides the shared execution model types for joplin-runner.
package core

// Attachment represents a debug artifact written when a case fails
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, screen, browser_log
	ContentType string `json:"contentType"` // MIME type: image/png, text/plain
	Path        string `json:"path"`        // File path relative to the debug directory
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"  // application window, from the session
	AttachmentScreen     = "screen"      // whole virtual display
	AttachmentBrowserLog = "browser_log" // renderer console
	AttachmentVideo      = "video"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeText = "text/plain"
	ContentTypeMP4  = "video/mp4"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewScreenAttachment creates an attachment for a full display grab
func NewScreenAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreen,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewBrowserLogAttachment renders log entries one per line
func NewBrowserLogAttachment(path string, entries []LogEntry) Attachment {
	var body []byte
	for i, e := range entries {
		if i > 0 {
			body = append(body, '\n')
		}
		body = append(body, e.Timestamp.Format("15:04:05.000")...)
		body = append(body, " ["+e.Level+"] "+e.Message...)
	}
	return Attachment{
		Name:        AttachmentBrowserLog,
		ContentType: ContentTypeText,
		Path:        path,
		Body:        body,
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnFlaky   bool `yaml:"captureOnFlaky" json:"captureOnFlaky"`     // Default: true

	// What to capture
	Screenshot bool `yaml:"screenshot" json:"screenshot"` // Default: true
	Screen     bool `yaml:"screen" json:"screen"`         // Default: true
	BrowserLog bool `yaml:"browserLog" json:"browserLog"` // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnFlaky:   true,
		Screenshot:       true,
		Screen:           true,
		BrowserLog:       true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status CaseStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusFlaky:
		return c.CaptureOnFlaky
	default:
		return false
	}
}

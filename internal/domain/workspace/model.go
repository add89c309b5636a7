package workspace

import (
	"time"

	"github.com/faeln1/snapcode/internal/domain/payload"
)

// View is what the page shows for the active tab.
type View struct {
	Mode       payload.Mode `json:"mode"`
	Payload    string       `json:"payload"`
	Generation uint64       `json:"generation"`
	Rendered   bool         `json:"rendered"`
	Image      string       `json:"image,omitempty"` // PNG data URL
	Tier       string       `json:"tier,omitempty"`
	SourceURL  string       `json:"sourceUrl,omitempty"`
	RenderedAt *time.Time   `json:"renderedAt,omitempty"`
	Error      string       `json:"error,omitempty"`
	FileName   string       `json:"fileName,omitempty"`
	Scan       *ScanView    `json:"scan,omitempty"`
}

// ScanView reports the camera session of the scan tab.
type ScanView struct {
	State     string `json:"state"`
	Payload   string `json:"payload,omitempty"`
	LastError string `json:"lastError,omitempty"`
	Attempts  int    `json:"attempts"`
}

type SetModeInput struct {
	Mode string `json:"mode"`
}

type PublishOutput struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	Published time.Time `json:"publishedAt"`
}

type CopyOutput struct {
	Copied bool   `json:"copied"`
	Length int    `json:"length"`
	Error  string `json:"error,omitempty"`
}

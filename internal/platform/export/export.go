package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/platform/render"
)

const FilePrefix = "ayz-snapcode-"

var (
	ErrEmptyTarget = errors.New("nothing rendered")
	ErrEmptyData   = errors.New("nothing to copy")
	ErrClipboard   = errors.New("failed to copy text")
)

// FileName is the download name for a code rendered in mode.
func FileName(mode payload.Mode) string {
	return fmt.Sprintf("%s%s.png", FilePrefix, mode)
}

// Download is the serialized content of a render target.
type Download struct {
	FileName string
	PNG      []byte
}

func (d Download) DataURL() string {
	return DataURL(d.PNG)
}

// DataURL encodes a PNG as a data: URL.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// NewDownload serializes the target's current artifact.
func NewDownload(target *render.Target, mode payload.Mode) (*Download, error) {
	st := target.Snapshot()
	if st.Empty() || len(st.Artifact.PNG) == 0 {
		return nil, ErrEmptyTarget
	}
	return &Download{FileName: FileName(mode), PNG: st.Artifact.PNG}, nil
}

// Save writes the download into dir and returns the file path.
func (d Download) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, d.FileName)
	if err := os.WriteFile(path, d.PNG, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Clipboard writes plain text to a clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// SystemClipboard uses the desktop clipboard of the host running the service.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard not supported on this host")
	}
	return clipboard.WriteAll(text)
}

// CopyPayload writes the raw payload to cb. Failures are wrapped in ErrClipboard
// and never retried.
func CopyPayload(ctx context.Context, cb Clipboard, data string) error {
	if data == "" {
		return ErrEmptyData
	}
	if cb == nil {
		return fmt.Errorf("%w: no clipboard", ErrClipboard)
	}
	if err := cb.WriteText(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}
	return nil
}

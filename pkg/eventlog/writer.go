package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var invalidSegment = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Writer records pipeline failures as JSON files for later inspection.
// Records never carry payload contents.
type Writer struct {
	baseDir string
	log     waLog.Logger
}

// NewWriter returns nil when baseDir is empty; a nil Writer drops every event.
func NewWriter(baseDir string, log waLog.Logger) *Writer {
	base := strings.TrimSpace(baseDir)
	if base == "" {
		return nil
	}
	if log == nil {
		log = waLog.Noop
	}
	return &Writer{baseDir: filepath.Clean(base), log: log}
}

func (w *Writer) Enabled() bool {
	return w != nil && w.baseDir != ""
}

// Write stores evt under baseDir/<kind>/<timestamp>-<uuid>.json.
func (w *Writer) Write(kind string, evt any) error {
	if !w.Enabled() || evt == nil {
		return nil
	}

	dir := filepath.Join(w.baseDir, sanitizeSegment(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	ts := time.Now().UTC()
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", ts.Format("20060102T150405Z"), uuid.NewString()))

	record := map[string]any{
		"kind":        kind,
		"event_type":  detectEventType(evt),
		"recorded_at": ts.Format(time.RFC3339Nano),
		"event":       evt,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		record["event"] = fmt.Sprintf("%+v", evt)
		record["marshal_error"] = err.Error()
		if data, err = json.MarshalIndent(record, "", "  "); err != nil {
			return fmt.Errorf("marshal fallback: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.log.Debugf("recorded %s event at %s", kind, path)
	return nil
}

func detectEventType(evt any) string {
	t := fmt.Sprintf("%T", evt)
	if idx := strings.LastIndex(t, "."); idx >= 0 && idx < len(t)-1 {
		return t[idx+1:]
	}
	if t == "" {
		return "Unknown"
	}
	return t
}

func sanitizeSegment(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "unknown"
	}
	sanitized := invalidSegment.ReplaceAllString(candidate, "_")
	sanitized = strings.Trim(sanitized, "._-")
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}

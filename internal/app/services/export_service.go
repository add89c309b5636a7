package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/faeln1/snapcode/internal/domain/workspace"
	"github.com/faeln1/snapcode/internal/platform/export"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/pkg/storage"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var ErrStorageDisabled = errors.New("object storage not configured")

type ExportService interface {
	Download(ctx context.Context) (*export.Download, error)
	ASCII(ctx context.Context) (string, error)
	Copy(ctx context.Context) (workspace.CopyOutput, error)
	Publish(ctx context.Context) (workspace.PublishOutput, error)
}

type exportService struct {
	ws        WorkspaceService
	clipboard export.Clipboard
	storage   storage.Service
	log       waLog.Logger
}

// NewExportService wires the export actions of ws. storage may be nil, in
// which case Publish returns ErrStorageDisabled.
func NewExportService(ws WorkspaceService, cb export.Clipboard, store storage.Service, log waLog.Logger) ExportService {
	if log == nil {
		log = waLog.Noop
	}
	return &exportService{ws: ws, clipboard: cb, storage: store, log: log}
}

func (s *exportService) Download(ctx context.Context) (*export.Download, error) {
	mode := s.ws.Mode()
	if !mode.Renders() {
		return nil, export.ErrEmptyTarget
	}
	return export.NewDownload(s.ws.Target(), mode)
}

// ASCII renders the payload currently on the target as terminal text.
func (s *exportService) ASCII(ctx context.Context) (string, error) {
	st := s.ws.Target().Snapshot()
	if st.Empty() || !s.ws.Mode().Renders() {
		return "", export.ErrEmptyTarget
	}
	return qr.ASCII(st.Payload)
}

// Copy writes the raw payload to the clipboard. A clipboard failure is
// reported in the output as well as returned.
func (s *exportService) Copy(ctx context.Context) (workspace.CopyOutput, error) {
	data := s.ws.Payload()
	if err := export.CopyPayload(ctx, s.clipboard, data); err != nil {
		if errors.Is(err, export.ErrClipboard) {
			s.log.Warnf("copy failed: %v", err)
		}
		return workspace.CopyOutput{Error: err.Error()}, err
	}
	return workspace.CopyOutput{Copied: true, Length: len(data)}, nil
}

// Publish uploads the rendered code to object storage under
// snapcode/<mode>/<uuid>.png.
func (s *exportService) Publish(ctx context.Context) (workspace.PublishOutput, error) {
	var out workspace.PublishOutput
	if s.storage == nil {
		return out, ErrStorageDisabled
	}
	dl, err := s.Download(ctx)
	if err != nil {
		return out, err
	}
	key := fmt.Sprintf("snapcode/%s/%s.png", s.ws.Mode(), uuid.NewString())
	url, err := s.storage.PutObject(ctx, storage.UploadInput{
		Key:         key,
		ContentType: "image/png",
		FileName:    dl.FileName,
		Body:        bytes.NewReader(dl.PNG),
		Size:        int64(len(dl.PNG)),
	})
	if err != nil {
		return out, fmt.Errorf("publish %s: %w", key, err)
	}
	s.log.Infof("published %s (%d bytes)", key, len(dl.PNG))
	return workspace.PublishOutput{
		Key:       key,
		URL:       url,
		FileName:  dl.FileName,
		Size:      int64(len(dl.PNG)),
		Published: time.Now().UTC(),
	}, nil
}

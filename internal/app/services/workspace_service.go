package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/domain/workspace"
	"github.com/faeln1/snapcode/internal/platform/camera"
	"github.com/faeln1/snapcode/internal/platform/export"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/render"
	"github.com/faeln1/snapcode/internal/platform/scan"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var (
	ErrModeNotGenerative = errors.New("mode does not generate codes")
	ErrWorkspaceClosed   = errors.New("workspace closed")
)

// WorkspaceService is the single view of the page: one mode, one payload, one
// render target and one camera session.
type WorkspaceService interface {
	View() workspace.View
	Mode() payload.Mode
	Payload() string
	Target() *render.Target
	SetMode(ctx context.Context, mode payload.Mode) (workspace.View, error)
	Generate(ctx context.Context, mode payload.Mode, in payload.Input) (workspace.View, error)
	Upload(ctx context.Context, r io.Reader) (workspace.View, error)
	StartScan(ctx context.Context) (workspace.ScanView, error)
	StopScan(ctx context.Context) workspace.ScanView
	ScanStatus() workspace.ScanView
	Close() error
}

// EventSink records pipeline failures. *eventlog.Writer satisfies it.
type EventSink interface {
	Write(kind string, evt any) error
}

// RenderFailure is recorded when every render tier failed.
type RenderFailure struct {
	Mode         payload.Mode `json:"mode"`
	Tiers        []string     `json:"tiers"`
	PayloadBytes int          `json:"payloadBytes"`
	Error        string       `json:"error"`
}

// DecodeFailure is recorded when an upload could not be decoded for a reason
// other than a missing code.
type DecodeFailure struct {
	Strategies []string `json:"strategies"`
	Error      string   `json:"error"`
}

type WorkspaceOptions struct {
	Encoder  *qr.Encoder
	Decoder  *scan.Decoder
	Camera   camera.Provider // nil when no camera is configured
	Scanning camera.Options
	Events   EventSink
}

type workspaceService struct {
	encoder *qr.Encoder
	decoder *scan.Decoder
	camera  *camera.Manager
	target  *render.Target
	events  EventSink
	log     waLog.Logger

	mu      sync.Mutex
	mode    payload.Mode
	payload string
	uploads uint64 // bumped per upload and per mode change
	closed  bool
}

func NewWorkspaceService(opts WorkspaceOptions, log waLog.Logger) WorkspaceService {
	if log == nil {
		log = waLog.Noop
	}
	s := &workspaceService{
		encoder: opts.Encoder,
		decoder: opts.Decoder,
		target:  render.NewTarget(),
		events:  opts.Events,
		log:     log,
		mode:    payload.ModeURL,
	}
	scanning := opts.Scanning
	scanning.OnDetect = s.detected
	s.camera = camera.NewManager(opts.Camera, opts.Decoder, scanning, log.Sub("Camera"))
	return s
}

func (s *workspaceService) Mode() payload.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *workspaceService) Payload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

func (s *workspaceService) Target() *render.Target {
	return s.target
}

func (s *workspaceService) View() workspace.View {
	s.mu.Lock()
	mode, data := s.mode, s.payload
	s.mu.Unlock()

	v := workspace.View{Mode: mode, Payload: data}
	st := s.target.Snapshot()
	v.Generation = st.Generation
	if st.Err != nil {
		v.Error = st.Err.Error()
	}
	if a := st.Artifact; a != nil && mode.Renders() {
		at := a.RenderedAt
		v.Rendered = true
		v.Image = export.DataURL(a.PNG)
		v.Tier = a.Tier
		v.SourceURL = a.SourceURL
		v.RenderedAt = &at
		v.FileName = export.FileName(mode)
	}
	if mode == payload.ModeScan {
		sv := s.ScanStatus()
		v.Scan = &sv
	}
	return v
}

// SetMode switches tab. Leaving a tab stops the camera and clears the payload
// and the render target; selecting the current tab does nothing.
func (s *workspaceService) SetMode(ctx context.Context, mode payload.Mode) (workspace.View, error) {
	if _, err := payload.ParseMode(string(mode)); err != nil {
		return s.View(), err
	}
	if err := s.switchMode(mode); err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

func (s *workspaceService) switchMode(mode payload.Mode) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrWorkspaceClosed
	}
	changed := s.mode != mode
	if changed {
		s.mode = mode
		s.payload = ""
		s.uploads++
		s.target.Clear()
	}
	s.mu.Unlock()

	if changed {
		s.camera.Stop()
		s.log.Debugf("mode switched to %s", mode)
	}
	return nil
}

// Generate formats the form input of a generative mode and renders it.
func (s *workspaceService) Generate(ctx context.Context, mode payload.Mode, in payload.Input) (workspace.View, error) {
	if !mode.Generative() {
		return s.View(), ErrModeNotGenerative
	}
	data, err := payload.Format(mode, in)
	if err != nil {
		return s.View(), err
	}
	if err := s.switchMode(mode); err != nil {
		return s.View(), err
	}
	return s.render(ctx, mode, data, nil)
}

// Upload decodes an image into the upload tab. A miss or a failed decode
// leaves the payload empty and the target cleared. An upload overtaken by a
// newer one or by a mode change returns the current view untouched.
func (s *workspaceService) Upload(ctx context.Context, r io.Reader) (workspace.View, error) {
	if err := s.switchMode(payload.ModeUpload); err != nil {
		return s.View(), err
	}
	s.mu.Lock()
	s.uploads++
	seq := s.uploads
	s.mu.Unlock()
	current := func() bool { return s.uploads == seq }

	data, err := s.decoder.DecodeReader(ctx, r)
	if err != nil {
		s.mu.Lock()
		stale := !current()
		if !stale {
			s.payload = ""
			s.target.Clear()
		}
		s.mu.Unlock()
		if stale {
			s.log.Debugf("dropping stale upload result: %v", err)
			return s.View(), nil
		}
		if errors.Is(err, scan.ErrNotFound) {
			s.log.Infof("upload contains no QR code")
		} else if !errors.Is(err, scan.ErrNotImage) {
			s.log.Warnf("upload decode failed: %v", err)
			s.record("decode", DecodeFailure{Strategies: s.decoder.Strategies(), Error: err.Error()})
		}
		return s.View(), err
	}
	return s.render(ctx, payload.ModeUpload, data, current)
}

// render stores data as the payload of mode and draws it. The payload and the
// ticket are taken together so the newest caller owns the target. current,
// when set, is checked under the lock and a false result leaves state alone.
func (s *workspaceService) render(ctx context.Context, mode payload.Mode, data string, current func() bool) (workspace.View, error) {
	s.mu.Lock()
	if s.mode != mode {
		s.mu.Unlock()
		return s.View(), qr.ErrSuperseded
	}
	if current != nil && !current() {
		s.mu.Unlock()
		s.log.Debugf("dropping stale upload result")
		return s.View(), nil
	}
	s.payload = data
	tk := s.target.Begin(data)
	s.mu.Unlock()

	_, err := s.encoder.EncodeTicket(ctx, tk)
	if errors.Is(err, qr.ErrSuperseded) {
		// a newer payload owns the target
		return s.View(), nil
	}
	if errors.Is(err, qr.ErrAllTiersFailed) {
		s.record("render", RenderFailure{Mode: mode, Tiers: s.encoder.Tiers(), PayloadBytes: len(data), Error: err.Error()})
	}
	return s.View(), err
}

func (s *workspaceService) record(kind string, evt any) {
	if s.events == nil {
		return
	}
	if err := s.events.Write(kind, evt); err != nil {
		s.log.Warnf("event log: %v", err)
	}
}

// StartScan switches to the scan tab and starts the camera.
func (s *workspaceService) StartScan(ctx context.Context) (workspace.ScanView, error) {
	if err := s.switchMode(payload.ModeScan); err != nil {
		return s.ScanStatus(), err
	}
	s.mu.Lock()
	s.payload = ""
	s.mu.Unlock()
	err := s.camera.Start(ctx)
	return s.ScanStatus(), err
}

func (s *workspaceService) StopScan(ctx context.Context) workspace.ScanView {
	s.camera.Stop()
	return s.ScanStatus()
}

func (s *workspaceService) ScanStatus() workspace.ScanView {
	st := s.camera.Status()
	return workspace.ScanView{
		State:     string(st.State),
		Payload:   st.Payload,
		LastError: st.LastError,
		Attempts:  st.Attempts,
	}
}

// detected receives the camera result. Scanned payloads are kept but not drawn.
func (s *workspaceService) detected(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.mode != payload.ModeScan {
		s.log.Debugf("dropping scan result, scan tab no longer active")
		return
	}
	s.payload = data
	s.log.Infof("scanned %d bytes", len(data))
}

// Close releases the camera. The workspace rejects mode changes afterwards.
func (s *workspaceService) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.camera.Close()
}

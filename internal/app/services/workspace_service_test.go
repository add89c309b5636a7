package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/platform/camera"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/render"
	"github.com/faeln1/snapcode/internal/platform/scan"
	"github.com/faeln1/snapcode/pkg/logger"
)

type failingRenderer struct{}

func (failingRenderer) Name() string    { return "broken" }
func (failingRenderer) Available() bool { return true }
func (failingRenderer) Render(ctx context.Context, p string) (*render.Artifact, error) {
	return nil, errors.New("endpoint unreachable")
}

// frameStream serves the same frame until closed.
type frameStream struct {
	mu     sync.Mutex
	frame  image.Image
	closed bool
}

func (s *frameStream) ReadFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, camera.ErrClosed
	}
	return s.frame, nil
}

func (s *frameStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *frameStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type frameProvider struct {
	stream *frameStream
	err    error
}

func (p *frameProvider) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.stream, nil
}

func newTestWorkspace(t *testing.T, provider camera.Provider, tiers ...qr.Renderer) WorkspaceService {
	t.Helper()
	log := logger.InitForTests().App
	if len(tiers) == 0 {
		tiers = []qr.Renderer{qr.NewLocalRenderer()}
	}
	ws := NewWorkspaceService(WorkspaceOptions{
		Encoder:  qr.NewEncoder(log, tiers...),
		Decoder:  scan.NewDecoder(log, scan.NewLibraryStrategy()),
		Camera:   provider,
		Scanning: camera.Options{Interval: 10 * time.Millisecond},
	}, log)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func qrPNG(t *testing.T, data string) []byte {
	t.Helper()
	b, err := qrcode.Encode(data, qrcode.Medium, 300)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetGray(100, 100, color.Gray{Y: 0})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func TestWorkspaceGenerateURL(t *testing.T) {
	ws := newTestWorkspace(t, nil)

	v, err := ws.Generate(context.Background(), payload.ModeURL, payload.Input{URL: "example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if v.Payload != "https://example.com" {
		t.Fatalf("unexpected payload %q", v.Payload)
	}
	if !v.Rendered || !strings.HasPrefix(v.Image, "data:image/png;base64,") {
		t.Fatalf("expected rendered data URL, got %+v", v)
	}
	if v.Tier != "local" || v.FileName != "ayz-snapcode-url.png" {
		t.Fatalf("unexpected tier/file: %s %s", v.Tier, v.FileName)
	}
}

func TestWorkspaceGenerateEmptyClears(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	ctx := context.Background()

	if _, err := ws.Generate(ctx, payload.ModeText, payload.Input{Text: "hello"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	v, err := ws.Generate(ctx, payload.ModeText, payload.Input{Text: ""})
	if err != nil {
		t.Fatalf("generate empty: %v", err)
	}
	if v.Rendered || v.Payload != "" {
		t.Fatalf("expected cleared view, got %+v", v)
	}
	if _, err := ws.Generate(ctx, payload.ModeContact, payload.Input{}); err != nil {
		t.Fatalf("empty contact: %v", err)
	}
	if !ws.Target().Snapshot().Empty() {
		t.Fatal("empty contact must not render")
	}
}

func TestWorkspaceGenerateRejectsNonGenerativeMode(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	if _, err := ws.Generate(context.Background(), payload.ModeScan, payload.Input{Text: "x"}); !errors.Is(err, ErrModeNotGenerative) {
		t.Fatalf("expected ErrModeNotGenerative, got %v", err)
	}
}

func TestWorkspaceAllTiersFailed(t *testing.T) {
	ws := newTestWorkspace(t, nil, failingRenderer{})

	v, err := ws.Generate(context.Background(), payload.ModeText, payload.Input{Text: "hello"})
	if !errors.Is(err, qr.ErrAllTiersFailed) {
		t.Fatalf("expected ErrAllTiersFailed, got %v", err)
	}
	if v.Rendered || v.Error == "" {
		t.Fatalf("expected broken image state, got %+v", v)
	}
	if v.Payload != "hello" {
		t.Fatalf("payload should be kept, got %q", v.Payload)
	}
}

func TestWorkspaceSetModeClears(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	ctx := context.Background()

	if _, err := ws.Generate(ctx, payload.ModeText, payload.Input{Text: "keep"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	// same tab is a no-op
	v, err := ws.SetMode(ctx, payload.ModeText)
	if err != nil || v.Payload != "keep" || !v.Rendered {
		t.Fatalf("same mode should keep state, got %+v err=%v", v, err)
	}
	v, err = ws.SetMode(ctx, payload.ModeURL)
	if err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if v.Mode != payload.ModeURL || v.Payload != "" || v.Rendered {
		t.Fatalf("expected cleared url tab, got %+v", v)
	}
	if _, err := ws.SetMode(ctx, payload.Mode("video")); !errors.Is(err, payload.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestWorkspaceUploadRoundTrip(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	card := payload.FormatContact(payload.ContactRecord{FirstName: "Ada"})

	v, err := ws.Upload(context.Background(), bytes.NewReader(qrPNG(t, card)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if v.Mode != payload.ModeUpload || v.Payload != card {
		t.Fatalf("unexpected view %+v", v)
	}
	if !v.Rendered {
		t.Fatal("uploaded code should be rendered")
	}
}

func TestWorkspaceUploadMiss(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	ctx := context.Background()

	if _, err := ws.Upload(ctx, bytes.NewReader(qrPNG(t, "first"))); err != nil {
		t.Fatalf("upload: %v", err)
	}
	v, err := ws.Upload(ctx, bytes.NewReader(blankPNG(t)))
	if !errors.Is(err, scan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if v.Payload != "" || v.Rendered {
		t.Fatalf("miss must clear payload and target, got %+v", v)
	}

	_, err = ws.Upload(ctx, strings.NewReader("just some text"))
	if !errors.Is(err, scan.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

// gatedStrategy holds its first decode until release is closed.
type gatedStrategy struct {
	inner   scan.Strategy
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStrategy() *gatedStrategy {
	return &gatedStrategy{
		inner:   scan.NewLibraryStrategy(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedStrategy) Name() string    { return "gated" }
func (g *gatedStrategy) Available() bool { return true }
func (g *gatedStrategy) TryDecode(ctx context.Context, img image.Image) (string, bool, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.inner.TryDecode(ctx, img)
}

func TestWorkspaceOverlappingUploads(t *testing.T) {
	cases := []struct {
		name  string
		older func(t *testing.T) []byte
	}{
		{"older hit", func(t *testing.T) []byte { return qrPNG(t, "old") }},
		{"older miss", blankPNG},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := logger.InitForTests().App
			gate := newGatedStrategy()
			ws := NewWorkspaceService(WorkspaceOptions{
				Encoder: qr.NewEncoder(log, qr.NewLocalRenderer()),
				Decoder: scan.NewDecoder(log, gate),
			}, log)
			defer ws.Close()
			ctx := context.Background()

			type result struct {
				payload string
				err     error
			}
			done := make(chan result, 1)
			older := tc.older(t)
			go func() {
				v, err := ws.Upload(ctx, bytes.NewReader(older))
				done <- result{v.Payload, err}
			}()
			<-gate.entered

			v, err := ws.Upload(ctx, bytes.NewReader(qrPNG(t, "new")))
			if err != nil || v.Payload != "new" || !v.Rendered {
				t.Fatalf("newer upload: %+v err=%v", v, err)
			}

			close(gate.release)
			res := <-done
			if res.err != nil {
				t.Fatalf("overtaken upload should not fail, got %v", res.err)
			}
			if res.payload != "new" {
				t.Fatalf("overtaken upload should see the newer payload, got %q", res.payload)
			}
			v = ws.View()
			if v.Payload != "new" || !v.Rendered {
				t.Fatalf("newer upload was overwritten: payload=%q rendered=%v", v.Payload, v.Rendered)
			}
		})
	}
}

func TestWorkspaceUploadDroppedAfterModeChange(t *testing.T) {
	log := logger.InitForTests().App
	gate := newGatedStrategy()
	ws := NewWorkspaceService(WorkspaceOptions{
		Encoder: qr.NewEncoder(log, qr.NewLocalRenderer()),
		Decoder: scan.NewDecoder(log, gate),
	}, log)
	defer ws.Close()
	ctx := context.Background()

	late := qrPNG(t, "late")
	done := make(chan error, 1)
	go func() {
		_, err := ws.Upload(ctx, bytes.NewReader(late))
		done <- err
	}()
	<-gate.entered

	if _, err := ws.SetMode(ctx, payload.ModeText); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if _, err := ws.SetMode(ctx, payload.ModeUpload); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("upload: %v", err)
	}
	if v := ws.View(); v.Payload != "" || v.Rendered {
		t.Fatalf("upload from before the tab change must be dropped, got %+v", v)
	}
}

func TestWorkspaceScanDetects(t *testing.T) {
	frame, err := png.Decode(bytes.NewReader(qrPNG(t, "scanned-payload")))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	stream := &frameStream{frame: frame}
	ws := newTestWorkspace(t, &frameProvider{stream: stream})

	if _, err := ws.StartScan(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for ws.Payload() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := ws.Payload(); got != "scanned-payload" {
		t.Fatalf("expected scanned payload, got %q", got)
	}
	if !stream.isClosed() {
		t.Fatal("camera should be released after detection")
	}
	v := ws.View()
	if v.Rendered {
		t.Fatal("scan results are not rendered")
	}
	if v.Scan == nil || v.Scan.State != string(camera.StateStopped) {
		t.Fatalf("unexpected scan view %+v", v.Scan)
	}
}

func TestWorkspaceLeavingScanStopsCamera(t *testing.T) {
	stream := &frameStream{frame: image.NewGray(image.Rect(0, 0, 50, 50))}
	ws := newTestWorkspace(t, &frameProvider{stream: stream})
	ctx := context.Background()

	if _, err := ws.StartScan(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if st := ws.ScanStatus(); st.State != string(camera.StateActive) {
		t.Fatalf("expected active, got %s", st.State)
	}
	if _, err := ws.SetMode(ctx, payload.ModeText); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if !stream.isClosed() {
		t.Fatal("switching tab must release the camera")
	}
	if st := ws.ScanStatus(); st.State != string(camera.StateStopped) {
		t.Fatalf("expected stopped, got %s", st.State)
	}
}

func TestWorkspaceScanWithoutCamera(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	sv, err := ws.StartScan(context.Background())
	if !errors.Is(err, camera.ErrNoCamera) {
		t.Fatalf("expected ErrNoCamera, got %v", err)
	}
	if sv.State != string(camera.StateIdle) || sv.LastError == "" {
		t.Fatalf("unexpected scan view %+v", sv)
	}
}

func TestWorkspaceClosed(t *testing.T) {
	ws := newTestWorkspace(t, nil)
	if err := ws.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := ws.SetMode(context.Background(), payload.ModeText); !errors.Is(err, ErrWorkspaceClosed) {
		t.Fatalf("expected ErrWorkspaceClosed, got %v", err)
	}
}

type memSink struct {
	mu    sync.Mutex
	kinds []string
	evts  []any
}

func (m *memSink) Write(kind string, evt any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kinds = append(m.kinds, kind)
	m.evts = append(m.evts, evt)
	return nil
}

func TestWorkspaceRecordsRenderFailure(t *testing.T) {
	sink := &memSink{}
	log := logger.InitForTests().App
	ws := NewWorkspaceService(WorkspaceOptions{
		Encoder: qr.NewEncoder(log, failingRenderer{}),
		Decoder: scan.NewDecoder(log, scan.NewLibraryStrategy()),
		Events:  sink,
	}, log)
	defer ws.Close()

	_, _ = ws.Generate(context.Background(), payload.ModeText, payload.Input{Text: "secret"})

	if len(sink.kinds) != 1 || sink.kinds[0] != "render" {
		t.Fatalf("expected one render event, got %v", sink.kinds)
	}
	ev, ok := sink.evts[0].(RenderFailure)
	if !ok {
		t.Fatalf("unexpected event %T", sink.evts[0])
	}
	if ev.PayloadBytes != len("secret") || len(ev.Tiers) != 1 || ev.Tiers[0] != "broken" {
		t.Fatalf("unexpected event %+v", ev)
	}

	// a miss is not a failure
	_, _ = ws.Upload(context.Background(), bytes.NewReader(blankPNG(t)))
	if len(sink.kinds) != 1 {
		t.Fatalf("decode miss must not be recorded, got %v", sink.kinds)
	}
}

package qr

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/faeln1/snapcode/internal/platform/render"
	"github.com/faeln1/snapcode/pkg/logger"
)

type fakeRenderer struct {
	name      string
	available bool
	err       error
	calls     int
	onRender  func()
}

func (f *fakeRenderer) Name() string    { return f.name }
func (f *fakeRenderer) Available() bool { return f.available }

func (f *fakeRenderer) Render(ctx context.Context, payload string) (*render.Artifact, error) {
	f.calls++
	if f.onRender != nil {
		f.onRender()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &render.Artifact{Payload: payload, PNG: []byte(f.name + ":" + payload)}, nil
}

func TestEncodeEmptyPayloadClearsTarget(t *testing.T) {
	primary := &fakeRenderer{name: "primary", available: true}
	enc := NewEncoder(logger.InitForTests().App, primary)
	target := render.NewTarget()

	if _, err := enc.Encode(context.Background(), "hello", target); err != nil {
		t.Fatalf("encode: %v", err)
	}
	a, err := enc.Encode(context.Background(), "", target)
	if err != nil || a != nil {
		t.Fatalf("expected nothing rendered, got %v err=%v", a, err)
	}
	if !target.Snapshot().Empty() {
		t.Fatalf("expected cleared target")
	}
	if primary.calls != 1 {
		t.Fatalf("empty payload must not reach a tier, calls=%d", primary.calls)
	}
}

func TestEncodeFallsBackSilently(t *testing.T) {
	primary := &fakeRenderer{name: "primary", available: true, err: errors.New("boom")}
	unavailable := &fakeRenderer{name: "missing", available: false}
	secondary := &fakeRenderer{name: "secondary", available: true}
	third := &fakeRenderer{name: "third", available: true}
	enc := NewEncoder(logger.InitForTests().App, primary, unavailable, secondary, third)
	target := render.NewTarget()

	a, err := enc.Encode(context.Background(), "data", target)
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if a.Tier != "secondary" {
		t.Fatalf("expected secondary tier, got %s", a.Tier)
	}
	if unavailable.calls != 0 || third.calls != 0 {
		t.Fatalf("unexpected calls: missing=%d third=%d", unavailable.calls, third.calls)
	}
	if st := target.Snapshot(); st.Err != nil || st.Artifact != a {
		t.Fatalf("target not updated: %+v", st)
	}
}

func TestEncodeAllTiersFail(t *testing.T) {
	a := &fakeRenderer{name: "a", available: true, err: errors.New("a down")}
	b := &fakeRenderer{name: "b", available: true, err: errors.New("b down")}
	enc := NewEncoder(logger.InitForTests().App, a, b)
	target := render.NewTarget()

	_, err := enc.Encode(context.Background(), "data", target)
	if !errors.Is(err, ErrAllTiersFailed) {
		t.Fatalf("expected ErrAllTiersFailed, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("each tier must be tried exactly once: a=%d b=%d", a.calls, b.calls)
	}
	st := target.Snapshot()
	if !st.Empty() || st.Err == nil {
		t.Fatalf("expected broken target, got %+v", st)
	}
}

func TestEncodeNoTierAvailable(t *testing.T) {
	enc := NewEncoder(nil, &fakeRenderer{name: "off"})
	_, err := enc.Encode(context.Background(), "data", render.NewTarget())
	if !errors.Is(err, ErrAllTiersFailed) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable exhaustion, got %v", err)
	}
}

func TestEncodeDiscardsStaleResult(t *testing.T) {
	target := render.NewTarget()
	slow := &fakeRenderer{name: "slow", available: true}
	enc := NewEncoder(nil, slow)

	tk := target.Begin("old")
	slow.onRender = func() { target.Begin("new") }

	if _, err := enc.EncodeTicket(context.Background(), tk); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	st := target.Snapshot()
	if st.Payload != "new" || !st.Empty() {
		t.Fatalf("stale artifact leaked into target: %+v", st)
	}
}

func TestEncodeTwiceKeepsSingleArtifact(t *testing.T) {
	enc := NewEncoder(nil, NewLocalRenderer())
	target := render.NewTarget()

	first, err := enc.Encode(context.Background(), "same", target)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := enc.Encode(context.Background(), "same", target)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(first.PNG, second.PNG) {
		t.Fatalf("expected identical renders")
	}
	if st := target.Snapshot(); st.Artifact != second {
		t.Fatalf("target should hold only the latest artifact")
	}
}

func TestLocalRendererSize(t *testing.T) {
	a, err := NewLocalRenderer().Render(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(a.PNG))
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if cfg.Width != Size || cfg.Height != Size {
		t.Fatalf("expected %dx%d, got %dx%d", Size, Size, cfg.Width, cfg.Height)
	}
}

func TestLazyLoadsOnce(t *testing.T) {
	loads := 0
	l := Lazy("barcode", func() (Renderer, error) {
		loads++
		return NewBarcodeRenderer(), nil
	})
	if loads != 0 {
		t.Fatalf("loader must not run before first use")
	}
	for i := 0; i < 3; i++ {
		if !l.Available() {
			t.Fatalf("expected available")
		}
	}
	a, err := l.Render(context.Background(), "lazy")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(a.PNG)); err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}
}

func TestLazyLoadFailure(t *testing.T) {
	loadErr := errors.New("library missing")
	l := Lazy("barcode", func() (Renderer, error) { return nil, loadErr })
	if l.Available() {
		t.Fatalf("expected unavailable")
	}
	if _, err := l.Render(context.Background(), "x"); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestRemoteSecondaryAfterPrimaryError(t *testing.T) {
	pngBytes, err := NewLocalRenderer().Render(context.Background(), "remote")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/primary":
			w.WriteHeader(http.StatusBadGateway)
		case "/secondary":
			gotData = r.URL.Query().Get("data")
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes.PNG)
		}
	}))
	defer srv.Close()

	tiers, err := BuildTiers([]string{"remote"}, TierOptions{
		PrimaryEndpoint:   srv.URL + "/primary?chl={data}",
		SecondaryEndpoint: srv.URL + "/secondary?data={data}",
		Client:            srv.Client(),
	})
	if err != nil {
		t.Fatalf("build tiers: %v", err)
	}
	enc := NewEncoder(nil, tiers...)
	a, err := enc.Encode(context.Background(), "a b&c", render.NewTarget())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a.Tier != "remote-secondary" {
		t.Fatalf("expected remote-secondary, got %s", a.Tier)
	}
	if gotData != "a b&c" {
		t.Fatalf("payload not escaped correctly, server saw %q", gotData)
	}
	if !strings.HasPrefix(a.SourceURL, srv.URL+"/secondary") {
		t.Fatalf("unexpected source url %q", a.SourceURL)
	}
}

func TestRemoteRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	r := NewRemoteRenderer("remote", srv.URL+"?d={data}", srv.Client())
	if _, err := r.Render(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for non-image body")
	}
}

func TestRemoteConvertsJPEG(t *testing.T) {
	var body bytes.Buffer
	if err := imaging.Encode(&body, imaging.New(40, 30, color.Black), imaging.JPEG); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body.Bytes())
	}))
	defer srv.Close()

	a, err := NewRemoteRenderer("remote", srv.URL+"?d={data}", srv.Client()).Render(context.Background(), "x")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(a.PNG))
	if err != nil {
		t.Fatalf("artifact is not png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestBuildTiersUnknown(t *testing.T) {
	if _, err := BuildTiers([]string{"local", "canvas"}, TierOptions{}); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
	tiers, err := BuildTiers([]string{"local", "lazy", "remote"}, TierOptions{
		PrimaryEndpoint:   DefaultPrimaryEndpoint,
		SecondaryEndpoint: DefaultSecondaryEndpoint,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := NewEncoder(nil, tiers...).Tiers()
	want := []string{"local", "barcode", "remote-primary", "remote-secondary"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tiers = %v, want %v", got, want)
	}
}

func TestASCII(t *testing.T) {
	out, err := ASCII("hello")
	if err != nil {
		t.Fatalf("ascii: %v", err)
	}
	if !strings.ContainsRune(out, '█') || !strings.Contains(out, "\n") {
		t.Fatalf("unexpected ascii output:\n%s", out)
	}
}

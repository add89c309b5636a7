package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// MJPEGProvider opens network cameras that serve multipart/x-mixed-replace
// JPEG streams. Sources are keyed by facing; the requested facing is used when
// configured, otherwise any configured source.
type MJPEGProvider struct {
	sources map[Facing]string
	client  *http.Client
}

func NewMJPEGProvider(sources map[Facing]string, client *http.Client) *MJPEGProvider {
	clean := make(map[Facing]string, len(sources))
	for f, u := range sources {
		if u = strings.TrimSpace(u); u != "" {
			clean[f] = u
		}
	}
	if client == nil {
		// streams are long lived; no overall timeout
		client = &http.Client{}
	}
	return &MJPEGProvider{sources: clean, client: client}
}

// Configured reports whether at least one camera source exists.
func (p *MJPEGProvider) Configured() bool { return len(p.sources) > 0 }

func (p *MJPEGProvider) pick(f Facing) (string, bool) {
	if u, ok := p.sources[f]; ok {
		return u, true
	}
	for _, fallback := range []Facing{FacingEnvironment, FacingUser} {
		if u, ok := p.sources[fallback]; ok {
			return u, true
		}
	}
	return "", false
}

func (p *MJPEGProvider) Open(ctx context.Context, c Constraints) (Stream, error) {
	src, ok := p.pick(c.Facing)
	if !ok {
		return nil, ErrNoCamera
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, err
	}

	// abort the handshake if the caller gives up before headers arrive
	stopWatch := context.AfterFunc(ctx, cancel)
	resp, err := p.client.Do(req)
	stopWatch()
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("open camera: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		cancel()
		return nil, ErrPermission
	case resp.StatusCode >= 400:
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open camera: http %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open camera: unsupported content type %q", resp.Header.Get("Content-Type"))
	}

	stream := &mjpegStream{
		body:   resp.Body,
		cancel: cancel,
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go stream.pump(multipart.NewReader(resp.Body, params["boundary"]))
	return stream, nil
}

// maxFrameBytes bounds a single JPEG part.
const maxFrameBytes = 8 << 20

// mjpegStream reads parts as fast as the camera sends them and keeps only the
// newest, so a slow scan interval never falls behind the live picture.
type mjpegStream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	mu     sync.Mutex
	latest []byte
	seq    uint64 // frames received
	taken  uint64 // seq of the last frame handed out
	err    error
	closed bool
}

func (s *mjpegStream) pump(reader *multipart.Reader) {
	defer close(s.done)
	for {
		part, err := reader.NextPart()
		if err != nil {
			s.stop(err)
			return
		}
		frame, err := io.ReadAll(io.LimitReader(part, maxFrameBytes))
		part.Close()
		if err != nil {
			s.stop(err)
			return
		}
		s.mu.Lock()
		s.latest = frame
		s.seq++
		s.mu.Unlock()
		s.notify()
	}
}

func (s *mjpegStream) stop(err error) {
	s.mu.Lock()
	switch {
	case s.err != nil:
	case s.closed, errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.err = ErrClosed
	default:
		// a broken transport does not recover
		s.err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *mjpegStream) notify() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// ReadFrame returns the newest frame not handed out yet, waiting for one when
// the camera has sent nothing new. Buffered older frames are skipped.
func (s *mjpegStream) ReadFrame(ctx context.Context) (image.Image, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		if s.seq > s.taken {
			frame := s.latest
			s.taken = s.seq
			s.mu.Unlock()
			img, err := jpeg.Decode(bytes.NewReader(frame))
			if err != nil {
				return nil, fmt.Errorf("decode frame: %w", err)
			}
			return img, nil
		}
		if s.err != nil {
			err := s.err
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-ctx.Done():
			return nil, ErrClosed
		}
	}
}

func (s *mjpegStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	err := s.body.Close()
	<-s.done
	return err
}

package camera

import (
	"context"
	"errors"
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateActive     State = "active"
	StateStopped    State = "stopped"
)

const DefaultInterval = 250 * time.Millisecond

// Status is a snapshot of the manager.
type Status struct {
	State     State  `json:"state"`
	LastError string `json:"lastError,omitempty"`
	Payload   string `json:"payload,omitempty"`
	Attempts  int    `json:"attempts"`
}

type Options struct {
	Interval    time.Duration
	Constraints Constraints
	// OnDetect is called from the loop goroutine once per session, after the
	// camera has been released.
	OnDetect func(payload string)
}

// Manager owns at most one camera stream and the decode loop bound to it.
type Manager struct {
	provider Provider
	decoder  FrameDecoder
	opts     Options
	log      waLog.Logger

	mu       sync.Mutex
	state    State
	lastErr  string
	payload  string
	attempts int
	stream   Stream
	cancel   context.CancelFunc
	done     chan struct{}
	session  uint64
}

func NewManager(provider Provider, decoder FrameDecoder, opts Options, log waLog.Logger) *Manager {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Constraints.Facing == "" {
		opts.Constraints.Facing = FacingEnvironment
	}
	if log == nil {
		log = waLog.Noop
	}
	return &Manager{provider: provider, decoder: decoder, opts: opts, log: log, state: StateIdle}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{State: m.state, LastError: m.lastErr, Payload: m.payload, Attempts: m.attempts}
}

// Start requests the camera and begins the decode loop. Calling Start while a
// session is requesting or active does nothing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateRequesting || m.state == StateActive {
		m.mu.Unlock()
		return nil
	}
	if m.provider == nil {
		m.state = StateIdle
		m.lastErr = ErrNoCamera.Error()
		m.mu.Unlock()
		return ErrNoCamera
	}
	m.session++
	id := m.session
	loopCtx, cancel := context.WithCancel(context.Background())
	m.state = StateRequesting
	m.lastErr = ""
	m.payload = ""
	m.attempts = 0
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	openCtx, stopOpen := context.WithCancel(ctx)
	defer stopOpen()
	go func() {
		select {
		case <-loopCtx.Done():
			stopOpen()
		case <-openCtx.Done():
		}
	}()

	stream, err := m.provider.Open(openCtx, m.opts.Constraints)

	m.mu.Lock()
	if m.session != id || m.state != StateRequesting {
		// stopped while the camera was being acquired
		m.mu.Unlock()
		if stream != nil {
			stream.Close()
		}
		close(done)
		return ErrInterrupted
	}
	if err != nil {
		m.state = StateIdle
		m.lastErr = err.Error()
		m.cancel = nil
		m.mu.Unlock()
		cancel()
		close(done)
		m.log.Warnf("camera request failed: %v", err)
		return err
	}
	m.stream = stream
	m.state = StateActive
	m.mu.Unlock()

	m.log.Infof("camera active, scanning every %s", m.opts.Interval)
	go m.loop(loopCtx, id, stream, done)
	return nil
}

// Stop halts the loop, waits for any in-flight tick and releases the camera.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state != StateRequesting && m.state != StateActive {
		m.mu.Unlock()
		return
	}
	m.state = StateStopped
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// releasing first unblocks a tick stuck waiting for a frame
	m.release()
	if done != nil {
		<-done
	}
	m.log.Infof("camera stopped")
}

// Close is Stop for view teardown.
func (m *Manager) Close() error {
	m.Stop()
	return nil
}

func (m *Manager) release() {
	m.mu.Lock()
	stream := m.stream
	m.stream = nil
	m.cancel = nil
	m.mu.Unlock()
	if stream != nil {
		if err := stream.Close(); err != nil {
			m.log.Warnf("camera release: %v", err)
		}
	}
}

func (m *Manager) loop(ctx context.Context, id uint64, stream Stream, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		payload, err := m.tick(ctx, stream)
		if ctx.Err() != nil {
			return
		}
		switch {
		case err == nil:
			if m.finish(id, payload, "") {
				m.release()
				m.log.Infof("code detected, camera released")
				if m.opts.OnDetect != nil {
					m.opts.OnDetect(payload)
				}
			}
			return
		case errors.Is(err, ErrClosed):
			if m.finish(id, "", err.Error()) {
				m.release()
			}
			return
		default:
			m.log.Debugf("frame not decoded: %v", err)
		}
	}
}

func (m *Manager) tick(ctx context.Context, stream Stream) (string, error) {
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()

	frame, err := stream.ReadFrame(ctx)
	if err != nil {
		return "", err
	}
	return m.decoder.Decode(ctx, frame)
}

// finish moves an active session to Stopped. It returns false when Stop won the race.
func (m *Manager) finish(id uint64, payload, lastErr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != id || m.state != StateActive {
		return false
	}
	m.state = StateStopped
	m.payload = payload
	m.lastErr = lastErr
	return true
}

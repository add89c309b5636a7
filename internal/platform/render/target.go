package render

import (
	"sync"
	"time"
)

// Artifact is one rendered QR code.
type Artifact struct {
	Payload    string
	PNG        []byte
	Tier       string
	SourceURL  string // set when the image came from a remote endpoint
	RenderedAt time.Time
}

// Ticket binds a render attempt to the generation of the target it was issued for.
type Ticket struct {
	target  *Target
	gen     uint64
	Payload string
}

func (t Ticket) Target() *Target { return t.target }

// State is a copy of the target's visible content.
type State struct {
	Payload    string
	Artifact   *Artifact
	Err        error // set when every render tier failed (broken image)
	Generation uint64
}

func (s State) Empty() bool { return s.Artifact == nil }

// Target is the drawable surface of a view. It holds at most one artifact and
// every Begin supersedes whatever attempt was in flight.
type Target struct {
	mu       sync.RWMutex
	gen      uint64
	payload  string
	artifact *Artifact
	err      error
}

func NewTarget() *Target {
	return &Target{}
}

// Begin clears the target and returns the ticket that owns it from now on.
func (t *Target) Begin(payload string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.payload = payload
	t.artifact = nil
	t.err = nil
	return Ticket{target: t, gen: t.gen, Payload: payload}
}

// Clear empties the target and invalidates any outstanding ticket.
func (t *Target) Clear() {
	t.Begin("")
}

// Commit stores the artifact if the ticket is still current. It returns false
// for stale tickets, whose result is dropped.
func (t *Target) Commit(tk Ticket, a *Artifact) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.gen != t.gen {
		return false
	}
	t.artifact = a
	t.err = nil
	return true
}

// Fail marks the target as broken for the ticket's payload.
func (t *Target) Fail(tk Ticket, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.gen != t.gen {
		return false
	}
	t.artifact = nil
	t.err = err
	return true
}

// Current reports whether the ticket still owns the target.
func (t *Target) Current(tk Ticket) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tk.gen == t.gen
}

func (t *Target) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return State{Payload: t.payload, Artifact: t.artifact, Err: t.err, Generation: t.gen}
}

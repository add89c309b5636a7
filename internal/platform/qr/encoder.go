package qr

import (
	"context"
	"errors"
	"fmt"

	"github.com/faeln1/snapcode/internal/platform/render"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Encoder renders payloads through an ordered list of tiers. Each tier is
// tried at most once per payload; only total exhaustion is reported.
type Encoder struct {
	tiers []Renderer
	log   waLog.Logger
}

func NewEncoder(log waLog.Logger, tiers ...Renderer) *Encoder {
	if log == nil {
		log = waLog.Noop
	}
	return &Encoder{tiers: tiers, log: log}
}

// Tiers returns the tier names in the order they are tried.
func (e *Encoder) Tiers() []string {
	names := make([]string, 0, len(e.tiers))
	for _, t := range e.tiers {
		names = append(names, t.Name())
	}
	return names
}

// Encode takes ownership of target for payload and renders into it.
// An empty payload leaves the target cleared and returns (nil, nil).
func (e *Encoder) Encode(ctx context.Context, payload string, target *render.Target) (*render.Artifact, error) {
	return e.EncodeTicket(ctx, target.Begin(payload))
}

// EncodeTicket renders for a ticket obtained earlier from Target.Begin.
func (e *Encoder) EncodeTicket(ctx context.Context, tk render.Ticket) (*render.Artifact, error) {
	target := tk.Target()
	if tk.Payload == "" {
		return nil, nil
	}

	var errs []error
	for _, tier := range e.tiers {
		if !target.Current(tk) {
			return nil, ErrSuperseded
		}
		if !tier.Available() {
			e.log.Debugf("tier %s unavailable, skipping", tier.Name())
			continue
		}
		a, err := tier.Render(ctx, tk.Payload)
		if err != nil {
			e.log.Debugf("tier %s failed: %v", tier.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			continue
		}
		a.Tier = tier.Name()
		a.Payload = tk.Payload
		if !target.Commit(tk, a) {
			e.log.Debugf("discarding stale %s render", tier.Name())
			return nil, ErrSuperseded
		}
		return a, nil
	}

	if len(errs) == 0 {
		errs = append(errs, ErrUnavailable)
	}
	err := fmt.Errorf("%w: %w", ErrAllTiersFailed, errors.Join(errs...))
	if target.Fail(tk, err) {
		e.log.Warnf("all render tiers failed: %v", err)
	}
	return nil, err
}

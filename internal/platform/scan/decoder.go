package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Decoder runs its strategies in order and returns the first payload found.
type Decoder struct {
	strategies []Strategy
	log        waLog.Logger
}

func NewDecoder(log waLog.Logger, strategies ...Strategy) *Decoder {
	if log == nil {
		log = waLog.Noop
	}
	return &Decoder{strategies: strategies, log: log}
}

func (d *Decoder) Strategies() []string {
	names := make([]string, 0, len(d.strategies))
	for _, s := range d.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Decode returns the payload, ErrNotFound when every strategy that ran found
// nothing, or ErrDecodeFailed when none of them could run.
func (d *Decoder) Decode(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", ErrDecodeFailed
	}
	frame := Prepare(img)

	ran := 0
	var errs []error
	for _, s := range d.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.Available() {
			continue
		}
		payload, ok, err := s.TryDecode(ctx, frame)
		if err != nil {
			d.log.Debugf("strategy %s failed: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		ran++
		if ok && payload != "" {
			d.log.Debugf("strategy %s decoded %d bytes", s.Name(), len(payload))
			return payload, nil
		}
	}
	if ran == 0 {
		if len(errs) == 0 {
			return "", ErrDecodeFailed
		}
		return "", fmt.Errorf("%w: %w", ErrDecodeFailed, errors.Join(errs...))
	}
	return "", ErrNotFound
}

// DecodeReader loads an uploaded file and decodes it.
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader) (string, error) {
	img, err := Load(r)
	if err != nil {
		return "", err
	}
	return d.Decode(ctx, img)
}

// BuildStrategies turns strategy names (native, library, remote) into
// strategies. The library strategy is appended when the list omits it.
func BuildStrategies(names []string, zbarPath, remoteEndpoint string, client *http.Client) ([]Strategy, error) {
	var out []Strategy
	hasLibrary := false
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue
		case "native":
			out = append(out, NewNativeStrategy(zbarPath))
		case "library":
			out = append(out, NewLibraryStrategy())
			hasLibrary = true
		case "remote":
			out = append(out, NewRemoteStrategy(remoteEndpoint, client))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
		}
	}
	if !hasLibrary {
		out = append(out, NewLibraryStrategy())
	}
	return out, nil
}

package qr

import (
	"context"
	"sync"

	"github.com/faeln1/snapcode/internal/platform/render"
)

// Loader builds a renderer on first use. A failed load is remembered and the
// tier stays unavailable.
type Loader func() (Renderer, error)

type lazyRenderer struct {
	name string
	load Loader

	once sync.Once
	r    Renderer
	err  error
}

// Lazy defers construction of a renderer until the encoder first needs it.
func Lazy(name string, load Loader) Renderer {
	return &lazyRenderer{name: name, load: load}
}

func (l *lazyRenderer) Name() string { return l.name }

func (l *lazyRenderer) Available() bool {
	l.once.Do(func() { l.r, l.err = l.load() })
	return l.err == nil && l.r != nil && l.r.Available()
}

func (l *lazyRenderer) Render(ctx context.Context, payload string) (*render.Artifact, error) {
	if !l.Available() {
		if l.err != nil {
			return nil, l.err
		}
		return nil, ErrUnavailable
	}
	return l.r.Render(ctx, payload)
}

package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/boombuler/barcode"
	barcodeqr "github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/faeln1/snapcode/internal/platform/render"
)

// Fixed output: 300x300 pixels at medium error correction.
const Size = 300

// Renderer is one fallback tier of the encoder.
type Renderer interface {
	Name() string
	Available() bool
	Render(ctx context.Context, payload string) (*render.Artifact, error)
}

// LocalRenderer draws the code in process with go-qrcode.
type LocalRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewLocalRenderer() *LocalRenderer {
	return &LocalRenderer{size: Size, level: qrcode.Medium}
}

func (r *LocalRenderer) Name() string    { return "local" }
func (r *LocalRenderer) Available() bool { return true }

func (r *LocalRenderer) Render(ctx context.Context, payload string) (*render.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("go-qrcode encode: %w", err)
	}
	return &render.Artifact{Payload: payload, PNG: png, RenderedAt: time.Now().UTC()}, nil
}

// BarcodeRenderer draws the code with boombuler/barcode. It is normally
// wrapped in Lazy so the library is only set up when the local tier fails.
type BarcodeRenderer struct {
	size  int
	quiet int
}

func NewBarcodeRenderer() *BarcodeRenderer {
	return &BarcodeRenderer{size: Size, quiet: Size / 15}
}

func (r *BarcodeRenderer) Name() string    { return "barcode" }
func (r *BarcodeRenderer) Available() bool { return true }

func (r *BarcodeRenderer) Render(ctx context.Context, payload string) (*render.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := barcodeqr.Encode(payload, barcodeqr.M, barcodeqr.Auto)
	if err != nil {
		return nil, fmt.Errorf("barcode encode: %w", err)
	}
	inner := r.size - 2*r.quiet
	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return nil, fmt.Errorf("barcode scale: %w", err)
	}
	canvas := imaging.New(r.size, r.size, color.White)
	canvas = imaging.Paste(canvas, scaled, image.Pt(r.quiet, r.quiet))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("barcode png: %w", err)
	}
	return &render.Artifact{Payload: payload, PNG: buf.Bytes(), RenderedAt: time.Now().UTC()}, nil
}

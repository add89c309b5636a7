package camera

import (
	"context"
	"errors"
	"image"
)

var (
	ErrPermission  = errors.New("camera access denied")
	ErrNoCamera    = errors.New("no camera available")
	ErrClosed      = errors.New("camera stream closed")
	ErrInterrupted = errors.New("camera request interrupted")
)

type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Constraints describe the requested camera. Facing is a preference, not a requirement.
type Constraints struct {
	Facing Facing
}

// Provider acquires camera streams.
type Provider interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired camera. Close releases every track and is idempotent.
type Stream interface {
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// FrameDecoder extracts a payload from one frame.
type FrameDecoder interface {
	Decode(ctx context.Context, img image.Image) (string, error)
}

package scan

import (
	"context"
	"image"
)

// Strategy is one way of extracting a payload from a bitmap. ok is false when
// the strategy ran but found nothing; err reports that it could not run.
type Strategy interface {
	Name() string
	Available() bool
	TryDecode(ctx context.Context, img image.Image) (payload string, ok bool, err error)
}

package scan

import "errors"

var (
	// ErrNotFound means the image was read but carries no recognizable code.
	ErrNotFound = errors.New("no QR code found in image")
	// ErrDecodeFailed means no strategy could process the image at all.
	ErrDecodeFailed = errors.New("failed to decode QR code")
	ErrNotImage     = errors.New("upload is not an image file")
	ErrUnknown      = errors.New("unknown decode strategy")
)

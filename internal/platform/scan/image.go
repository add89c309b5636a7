package scan

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// MaxDimension bounds the offscreen bitmap handed to the strategies.
const MaxDimension = 1600

// Load sniffs the stream, rejects anything that is not an image and decodes it
// honoring EXIF orientation.
func Load(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if !IsImage(head) {
		return nil, ErrNotImage
	}
	img, err := imaging.Decode(br, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return img, nil
}

// IsImage reports whether the leading bytes look like an image file.
func IsImage(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head), "image/")
}

// Prepare draws img onto an NRGBA bitmap, shrinking it when larger than MaxDimension.
func Prepare(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		return imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}
	return imaging.Clone(img)
}

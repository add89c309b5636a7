package scan

import (
	"context"
	"errors"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// LibraryStrategy decodes with gozxing. It is always available.
type LibraryStrategy struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewLibraryStrategy() *LibraryStrategy {
	return &LibraryStrategy{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

func (s *LibraryStrategy) Name() string    { return "library" }
func (s *LibraryStrategy) Available() bool { return true }

func (s *LibraryStrategy) TryDecode(ctx context.Context, img image.Image) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, err
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, s.hints)
	if err != nil {
		var readerErr gozxing.ReaderException
		if errors.As(err, &readerErr) {
			// not found, checksum and format errors all mean "no readable code"
			return "", false, nil
		}
		return "", false, err
	}
	if text := result.GetText(); text != "" {
		return text, true, nil
	}
	return "", false, nil
}

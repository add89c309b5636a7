package qr

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ASCII renders the payload with half-block characters so two module rows fit
// in one terminal line.
func ASCII(payload string) (string, error) {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}
	bmp := code.Bitmap()
	if len(bmp)%2 == 1 {
		width := 0
		if len(bmp) > 0 {
			width = len(bmp[0])
		}
		bmp = append(bmp, make([]bool, width))
	}

	var out strings.Builder
	for y := 0; y < len(bmp); y += 2 {
		top, bottom := bmp[y], bmp[y+1]
		for x := range top {
			switch t, b := top[x], bottom[x]; {
			case t && b:
				out.WriteRune('█')
			case t:
				out.WriteRune('▀')
			case b:
				out.WriteRune('▄')
			default:
				out.WriteRune(' ')
			}
		}
		out.WriteByte('\n')
	}
	return out.String(), nil
}

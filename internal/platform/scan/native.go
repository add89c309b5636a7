package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// zbarimg exits with status 4 when the image holds no symbol.
const zbarNoSymbols = 4

// NativeStrategy shells out to the platform's zbarimg detector when it is installed.
type NativeStrategy struct {
	bin string

	once sync.Once
	path string
}

// NewNativeStrategy looks bin up lazily on PATH; an empty bin means "zbarimg".
func NewNativeStrategy(bin string) *NativeStrategy {
	if strings.TrimSpace(bin) == "" {
		bin = "zbarimg"
	}
	return &NativeStrategy{bin: bin}
}

func (s *NativeStrategy) Name() string { return "native" }

func (s *NativeStrategy) Available() bool {
	s.once.Do(func() {
		if p, err := exec.LookPath(s.bin); err == nil {
			s.path = p
		}
	})
	return s.path != ""
}

func (s *NativeStrategy) TryDecode(ctx context.Context, img image.Image) (string, bool, error) {
	if !s.Available() {
		return "", false, fmt.Errorf("%s not installed", s.bin)
	}
	f, err := os.CreateTemp("", "snapcode-*.png")
	if err != nil {
		return "", false, err
	}
	defer os.Remove(f.Name())
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", false, err
	}
	if err := f.Close(); err != nil {
		return "", false, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, "--quiet", "--raw", "-Sdisable", "-Sqrcode.enable", f.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == zbarNoSymbols {
			return "", false, nil
		}
		return "", false, fmt.Errorf("zbarimg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	out := strings.TrimSuffix(stdout.String(), "\n")
	if out == "" {
		return "", false, nil
	}
	return out, true, nil
}

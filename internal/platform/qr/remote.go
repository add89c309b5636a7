package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/faeln1/snapcode/internal/platform/render"
)

const (
	DefaultPrimaryEndpoint   = "https://chart.googleapis.com/chart?chs=300x300&cht=qr&chl={data}&choe=UTF-8"
	DefaultSecondaryEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data={data}&format=png&margin=10"

	maxRemoteImageBytes = 4 << 20
)

// RemoteRenderer fetches a pre-rendered image from an image generation
// endpoint. The template carries a {data} placeholder for the escaped payload.
type RemoteRenderer struct {
	name     string
	template string
	client   *http.Client
}

func NewRemoteRenderer(name, template string, client *http.Client) *RemoteRenderer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteRenderer{name: name, template: strings.TrimSpace(template), client: client}
}

func (r *RemoteRenderer) Name() string    { return r.name }
func (r *RemoteRenderer) Available() bool { return strings.Contains(r.template, "{data}") }

func (r *RemoteRenderer) Render(ctx context.Context, payload string) (*render.Artifact, error) {
	target := strings.ReplaceAll(r.template, "{data}", url.QueryEscape(payload))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/png")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImageBytes))
	if err != nil {
		return nil, err
	}
	pngBytes, err := asPNG(body)
	if err != nil {
		return nil, err
	}
	return &render.Artifact{
		Payload:    payload,
		PNG:        pngBytes,
		SourceURL:  target,
		RenderedAt: time.Now().UTC(),
	}, nil
}

// asPNG checks that body is an image and re-encodes anything that is not PNG.
func asPNG(body []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote response is not an image: %w", err)
	}
	if format == "png" {
		return body, nil
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote response is not an image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

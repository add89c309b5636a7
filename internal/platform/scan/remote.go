package scan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const DefaultRemoteEndpoint = "https://api.qrserver.com/v1/read-qr-code/"

// RemoteStrategy posts the image to a QR reading service that answers with
// [{"symbol":[{"data":"...","error":null}]}].
type RemoteStrategy struct {
	endpoint string
	client   *http.Client
}

func NewRemoteStrategy(endpoint string, client *http.Client) *RemoteStrategy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteStrategy{endpoint: strings.TrimSpace(endpoint), client: client}
}

func (s *RemoteStrategy) Name() string    { return "remote" }
func (s *RemoteStrategy) Available() bool { return s.endpoint != "" }

func (s *RemoteStrategy) TryDecode(ctx context.Context, img image.Image) (string, bool, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "snapcode.png")
	if err != nil {
		return "", false, err
	}
	if err := png.Encode(part, img); err != nil {
		return "", false, err
	}
	if err := mw.Close(); err != nil {
		return "", false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", false, err
	}
	if resp.StatusCode >= 400 {
		return "", false, fmt.Errorf("http %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return "", false, fmt.Errorf("invalid json response")
	}
	data := gjson.GetBytes(raw, "0.symbol.0.data")
	if !data.Exists() || data.String() == "" {
		return "", false, nil
	}
	return data.String(), true, nil
}

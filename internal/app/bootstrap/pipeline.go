package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/faeln1/snapcode/internal/config"
	"github.com/faeln1/snapcode/internal/platform/camera"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/scan"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Pipeline is the encoder and decoder built from configuration.
type Pipeline struct {
	Encoder *qr.Encoder
	Decoder *scan.Decoder
	Client  *http.Client
}

// NewPipeline builds the render tiers and decode strategies in configured order.
// Remote tiers and strategies share one client bounded by REMOTE_TIMEOUT.
func NewPipeline(cfg *config.AppConfig, log waLog.Logger) (*Pipeline, error) {
	if log == nil {
		log = waLog.Noop
	}
	client := &http.Client{Timeout: cfg.RemoteTimeout}

	tiers, err := qr.BuildTiers(cfg.Encode.Tiers, qr.TierOptions{
		PrimaryEndpoint:   cfg.Encode.PrimaryEndpoint,
		SecondaryEndpoint: cfg.Encode.SecondaryEndpoint,
		Client:            client,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tiers: %w", err)
	}
	strategies, err := scan.BuildStrategies(cfg.Decode.Strategies, cfg.Decode.ZbarPath, cfg.Decode.RemoteEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("decode strategies: %w", err)
	}

	p := &Pipeline{
		Encoder: qr.NewEncoder(log.Sub("Encoder"), tiers...),
		Decoder: scan.NewDecoder(log.Sub("Decoder"), strategies...),
		Client:  client,
	}
	log.Infof("encode tiers: %v", p.Encoder.Tiers())
	log.Infof("decode strategies: %v", p.Decoder.Strategies())
	return p, nil
}

// CameraProvider returns the MJPEG provider for the configured sources, or nil
// when no camera URL is set. The stream client has no overall timeout.
func CameraProvider(cfg *config.AppConfig) camera.Provider {
	if !cfg.Camera.Enabled() {
		return nil
	}
	sources := map[camera.Facing]string{}
	if cfg.Camera.EnvironmentURL != "" {
		sources[camera.FacingEnvironment] = cfg.Camera.EnvironmentURL
	}
	if cfg.Camera.UserURL != "" {
		sources[camera.FacingUser] = cfg.Camera.UserURL
	}
	return camera.NewMJPEGProvider(sources, &http.Client{})
}

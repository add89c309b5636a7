package qr

import (
	"fmt"
	"net/http"
	"strings"
)

// TierOptions configures BuildTiers.
type TierOptions struct {
	PrimaryEndpoint   string
	SecondaryEndpoint string
	Client            *http.Client
}

// BuildTiers turns tier names (local, lazy, remote) into renderers. The remote
// name expands to the primary and the secondary endpoint.
func BuildTiers(names []string, opts TierOptions) ([]Renderer, error) {
	var tiers []Renderer
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue
		case "local":
			tiers = append(tiers, NewLocalRenderer())
		case "lazy", "barcode":
			tiers = append(tiers, Lazy("barcode", func() (Renderer, error) {
				return NewBarcodeRenderer(), nil
			}))
		case "remote":
			if opts.PrimaryEndpoint != "" {
				tiers = append(tiers, NewRemoteRenderer("remote-primary", opts.PrimaryEndpoint, opts.Client))
			}
			if opts.SecondaryEndpoint != "" {
				tiers = append(tiers, NewRemoteRenderer("remote-secondary", opts.SecondaryEndpoint, opts.Client))
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, name)
		}
	}
	return tiers, nil
}

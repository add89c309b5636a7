package qr

import "errors"

var (
	ErrAllTiersFailed = errors.New("qr code could not be rendered")
	ErrSuperseded     = errors.New("render superseded by a newer payload")
	ErrUnavailable    = errors.New("renderer unavailable")
	ErrUnknownTier    = errors.New("unknown render tier")
)

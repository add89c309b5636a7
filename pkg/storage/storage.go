package storage

import (
	"context"
	"io"
)

type UploadInput struct {
	Key         string
	ContentType string
	// FileName is suggested to browsers through Content-Disposition.
	FileName string
	Body     io.Reader
	Size     int64
}

// Service stores exported QR images and returns a URL they can be fetched from.
type Service interface {
	PutObject(ctx context.Context, in UploadInput) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

package minio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/faeln1/snapcode/pkg/storage"
)

const defaultPresignTTL = 24 * time.Hour

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL serves objects directly; when empty links are presigned.
	PublicURL  string
	PresignTTL time.Duration
}

type Client struct {
	core       *minio.Client
	bucket     string
	publicURL  string
	presignTTL time.Duration
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	core, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	if err := ensureBucket(ctx, core, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &Client{core: core, bucket: cfg.Bucket, publicURL: strings.TrimRight(cfg.PublicURL, "/"), presignTTL: ttl}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (c *Client) PutObject(ctx context.Context, in storage.UploadInput) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  in.ContentType,
		CacheControl: "public, max-age=31536000, immutable",
	}
	if in.FileName != "" {
		opts.ContentDisposition = fmt.Sprintf("attachment; filename=%q", in.FileName)
	}
	if _, err := c.core.PutObject(ctx, c.bucket, in.Key, in.Body, in.Size, opts); err != nil {
		return "", err
	}
	return c.objectURL(ctx, in.Key)
}

func (c *Client) DeleteObject(ctx context.Context, key string) error {
	return c.core.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}

func (c *Client) objectURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key), nil
	}
	u, err := c.core.PresignedGetObject(ctx, c.bucket, key, c.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

var _ storage.Service = (*Client)(nil)

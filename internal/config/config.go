package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/scan"
)

type AppConfig struct {
	HTTPPort       string
	Env            string
	LogLevel       string
	SwaggerEnable  bool
	DocsPath       string
	EventLogDir    string
	UploadMaxBytes int64
	RemoteTimeout  time.Duration
	Encode         EncodeConfig
	Decode         DecodeConfig
	Camera         CameraConfig
	Storage        StorageConfig
}

// EncodeConfig lists the render tiers in the order they are tried.
type EncodeConfig struct {
	Tiers             []string
	PrimaryEndpoint   string
	SecondaryEndpoint string
}

// DecodeConfig lists the decode strategies in the order they are tried.
type DecodeConfig struct {
	Strategies     []string
	RemoteEndpoint string
	ZbarPath       string
}

type CameraConfig struct {
	EnvironmentURL string
	UserURL        string
	Interval       time.Duration
}

func (c CameraConfig) Enabled() bool {
	return c.EnvironmentURL != "" || c.UserURL != ""
}

type StorageConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	Region     string
	UseSSL     bool
	PublicURL  string
	PresignTTL time.Duration
}

func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}

func Load() *AppConfig {
	storage := StorageConfig{
		Endpoint:   getEnv("STORAGE_ENDPOINT", ""),
		AccessKey:  getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey:  getEnv("STORAGE_SECRET_KEY", ""),
		Bucket:     getEnv("STORAGE_BUCKET", ""),
		Region:     getEnv("STORAGE_REGION", ""),
		UseSSL:     getBool("STORAGE_USE_SSL", false),
		PublicURL:  getEnv("STORAGE_PUBLIC_URL", ""),
		PresignTTL: getDuration("STORAGE_PRESIGN_TTL", 24*time.Hour),
	}

	// MINIO_* is accepted when STORAGE_* is not provided.
	if storage.Endpoint == "" {
		storage.Endpoint = getEnv("MINIO_ENDPOINT", "")
	}
	if storage.AccessKey == "" {
		storage.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	}
	if storage.SecretKey == "" {
		storage.SecretKey = getEnv("MINIO_SECRET_KEY", "")
	}
	if storage.Bucket == "" {
		storage.Bucket = getEnv("MINIO_BUCKET", "")
	}

	return &AppConfig{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		SwaggerEnable:  getBool("SWAGGER_ENABLE", true),
		DocsPath:       getEnv("OPENAPI_PATH", "docs/openapi.yaml"),
		EventLogDir:    getEnv("EVENT_LOG_DIR", ""),
		UploadMaxBytes: getInt64("UPLOAD_MAX_BYTES", 10<<20),
		RemoteTimeout:  getDuration("REMOTE_TIMEOUT", 10*time.Second),
		Encode: EncodeConfig{
			Tiers:             getList("ENCODE_TIERS", []string{"local", "lazy", "remote"}),
			PrimaryEndpoint:   getEnv("ENCODE_REMOTE_PRIMARY_URL", qr.DefaultPrimaryEndpoint),
			SecondaryEndpoint: getEnv("ENCODE_REMOTE_SECONDARY_URL", qr.DefaultSecondaryEndpoint),
		},
		Decode: DecodeConfig{
			Strategies:     getList("DECODE_STRATEGIES", []string{"native", "library"}),
			RemoteEndpoint: getEnv("DECODE_REMOTE_URL", scan.DefaultRemoteEndpoint),
			ZbarPath:       getEnv("ZBARIMG_PATH", "zbarimg"),
		},
		Camera: CameraConfig{
			EnvironmentURL: strings.TrimSpace(getEnv("CAMERA_ENVIRONMENT_URL", "")),
			UserURL:        strings.TrimSpace(getEnv("CAMERA_USER_URL", "")),
			Interval:       getDuration("CAMERA_INTERVAL", 250*time.Millisecond),
		},
		Storage: storage,
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: %s=%q is not a bool, using %v", key, v, def)
		return def
	}
	return b
}

func getInt64(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("config: %s=%q is not a positive integer, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func MustLoad() *AppConfig {
	cfg := Load()
	if cfg.HTTPPort == "" {
		log.Fatal("HTTP_PORT required")
	}
	if len(cfg.Encode.Tiers) == 0 {
		log.Fatal("ENCODE_TIERS must name at least one tier")
	}
	return cfg
}

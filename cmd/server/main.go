package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faeln1/snapcode/internal/app/bootstrap"
	"github.com/faeln1/snapcode/internal/app/controllers"
	"github.com/faeln1/snapcode/internal/app/services"
	"github.com/faeln1/snapcode/internal/config"
	"github.com/faeln1/snapcode/internal/platform/camera"
	"github.com/faeln1/snapcode/internal/platform/export"
	httpPlatform "github.com/faeln1/snapcode/internal/platform/http"
	"github.com/faeln1/snapcode/pkg/eventlog"
	"github.com/faeln1/snapcode/pkg/logger"
	storagepkg "github.com/faeln1/snapcode/pkg/storage"
	minioStorage "github.com/faeln1/snapcode/pkg/storage/minio"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.MustLoad()
	loggers := logger.New(cfg.LogLevel)

	log.Printf("configuration: env=%s port=%s tiers=%v strategies=%v", cfg.Env, cfg.HTTPPort, cfg.Encode.Tiers, cfg.Decode.Strategies)

	var objectStorage storagepkg.Service
	if cfg.Storage.Enabled() {
		store, err := minioStorage.New(context.Background(), minioStorage.Config{
			Endpoint:   cfg.Storage.Endpoint,
			AccessKey:  cfg.Storage.AccessKey,
			SecretKey:  cfg.Storage.SecretKey,
			Bucket:     cfg.Storage.Bucket,
			Region:     cfg.Storage.Region,
			UseSSL:     cfg.Storage.UseSSL,
			PublicURL:  cfg.Storage.PublicURL,
			PresignTTL: cfg.Storage.PresignTTL,
		})
		if err != nil {
			log.Fatalf("storage initialization error: %v", err)
		}
		objectStorage = store
		log.Printf("object storage enabled bucket=%s endpoint=%s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
	}

	pipeline, err := bootstrap.NewPipeline(cfg, loggers.Component("Pipeline"))
	if err != nil {
		log.Fatalf("pipeline initialization error: %v", err)
	}

	provider := bootstrap.CameraProvider(cfg)
	if provider == nil {
		log.Printf("no camera configured, scanning disabled")
	}

	opts := services.WorkspaceOptions{
		Encoder:  pipeline.Encoder,
		Decoder:  pipeline.Decoder,
		Camera:   provider,
		Scanning: camera.Options{Interval: cfg.Camera.Interval},
	}
	if events := eventlog.NewWriter(cfg.EventLogDir, loggers.Component("EventLog")); events.Enabled() {
		opts.Events = events
		log.Printf("recording pipeline failures under %s", cfg.EventLogDir)
	}

	workspaceSvc := services.NewWorkspaceService(opts, loggers.Component("Workspace"))
	exportSvc := services.NewExportService(workspaceSvc, export.SystemClipboard{}, objectStorage, loggers.Component("Export"))

	router := httpPlatform.NewRouter(httpPlatform.RouterConfig{
		WorkspaceCtrl: controllers.NewWorkspaceController(workspaceSvc),
		QRCtrl:        controllers.NewQRController(workspaceSvc, exportSvc),
		UploadCtrl:    controllers.NewUploadController(workspaceSvc, cfg.UploadMaxBytes),
		ScanCtrl:      controllers.NewScanController(workspaceSvc),
		Logger:        loggers.HTTP,
		SwaggerEnable: cfg.SwaggerEnable,
		DocsPath:      cfg.DocsPath,
		EncodeTiers:   pipeline.Encoder.Tiers(),
		Strategies:    pipeline.Decoder.Strategies(),
		Camera:        provider != nil,
		Storage:       objectStorage != nil,
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	// the camera must be released even when the server did not drain
	if err := workspaceSvc.Close(); err != nil {
		log.Printf("error releasing camera: %v", err)
	}
}

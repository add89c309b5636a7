package http

import (
	"encoding/json"
	stdhttp "net/http"
	"os"
	"strings"
	"sync"

	"github.com/faeln1/snapcode/internal/app/controllers"
	"github.com/faeln1/snapcode/internal/platform/middleware"
	waLog "go.mau.fi/whatsmeow/util/log"
	yaml "gopkg.in/yaml.v3"
)

type RouterConfig struct {
	WorkspaceCtrl *controllers.WorkspaceController
	QRCtrl        *controllers.QRController
	UploadCtrl    *controllers.UploadController
	ScanCtrl      *controllers.ScanController
	Logger        waLog.Logger
	SwaggerEnable bool
	DocsPath      string
	EncodeTiers   []string
	Strategies    []string
	Camera        bool
	Storage       bool
}

func NewRouter(cfg RouterConfig) stdhttp.Handler {
	mux := stdhttp.NewServeMux()

	// Root endpoint - API information
	mux.HandleFunc("/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path != "/" {
			writeStatus(w, stdhttp.StatusNotFound, "endpoint not found")
			return
		}
		if r.Method != stdhttp.MethodGet {
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"name":        "SnapCode",
			"version":     "0.1.0",
			"description": "Generate QR codes from URLs, text and contacts, or decode them from images and a camera",
			"features": map[string]bool{
				"generate": true,
				"upload":   true,
				"scan":     cfg.Camera,
				"publish":  cfg.Storage,
				"docs":     cfg.SwaggerEnable,
			},
			"encodeTiers":    cfg.EncodeTiers,
			"decodeStrategy": cfg.Strategies,
			"endpoints": map[string]string{
				"health":        "/health",
				"workspace":     "/workspace",
				"generate":      "/qr/{url|text|contact}",
				"download":      "/qr/download",
				"upload":        "/upload",
				"scan":          "/scan",
				"documentation": "/docs",
				"openapi_yaml":  "/openapi.yaml",
				"openapi_json":  "/openapi.json",
			},
		})
	})

	mux.HandleFunc("/health", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// --- Documentation endpoints (if enabled) ---
	if cfg.SwaggerEnable {
		docsPath := cfg.DocsPath
		if docsPath == "" {
			docsPath = "docs/openapi.yaml"
		}
		var (
			once     sync.Once
			yamlData []byte
			yamlErr  error
		)
		loadYAML := func() ([]byte, error) {
			once.Do(func() { yamlData, yamlErr = os.ReadFile(docsPath) })
			return yamlData, yamlErr
		}
		mux.HandleFunc("/openapi.yaml", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			data, err := loadYAML()
			if err != nil {
				w.WriteHeader(stdhttp.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
			w.Write(data)
		})
		mux.HandleFunc("/openapi.json", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			data, err := loadYAML()
			if err != nil {
				w.WriteHeader(stdhttp.StatusNotFound)
				return
			}
			var v interface{}
			if err := yaml.Unmarshal(data, &v); err != nil {
				w.WriteHeader(stdhttp.StatusInternalServerError)
				return
			}
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				w.WriteHeader(stdhttp.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write(jsonBytes)
		})
		mux.HandleFunc("/docs", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<!DOCTYPE html><html><head><title>SnapCode API</title><link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css"/></head><body><div id="swagger-ui"></div><script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script><script>window.onload=()=>{SwaggerUIBundle({url:'/openapi.yaml',dom_id:'#swagger-ui'});};</script></body></html>`))
		})
	}

	mux.HandleFunc("/workspace", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		switch r.Method {
		case stdhttp.MethodGet:
			cfg.WorkspaceCtrl.Get(w, r)
		case stdhttp.MethodPut:
			cfg.WorkspaceCtrl.SetMode(w, r)
		default:
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/qr", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodGet {
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.QRCtrl.Current(w, r)
	})

	// /qr/{url|text|contact}, /qr/download, /qr/copy, /qr/publish
	mux.HandleFunc("/qr/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/qr/"), "/")
		switch action {
		case "":
			if r.Method != stdhttp.MethodGet {
				writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
				return
			}
			cfg.QRCtrl.Current(w, r)
		case "download":
			if r.Method != stdhttp.MethodGet {
				writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
				return
			}
			cfg.QRCtrl.Download(w, r)
		case "copy":
			if r.Method != stdhttp.MethodPost {
				writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
				return
			}
			cfg.QRCtrl.Copy(w, r)
		case "publish":
			if r.Method != stdhttp.MethodPost {
				writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
				return
			}
			cfg.QRCtrl.Publish(w, r)
		default:
			if strings.Contains(action, "/") {
				writeStatus(w, stdhttp.StatusNotFound, "endpoint not found")
				return
			}
			if r.Method != stdhttp.MethodPost {
				writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
				return
			}
			cfg.QRCtrl.Generate(w, r, action)
		}
	})

	mux.HandleFunc("/upload", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodPost {
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.UploadCtrl.Upload(w, r)
	})

	mux.HandleFunc("/scan", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodGet {
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.ScanCtrl.Status(w, r)
	})

	mux.HandleFunc("/scan/", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodPost {
			writeStatus(w, stdhttp.StatusMethodNotAllowed, "method not allowed")
			return
		}
		switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/scan/"), "/") {
		case "start":
			cfg.ScanCtrl.Start(w, r)
		case "stop":
			cfg.ScanCtrl.Stop(w, r)
		default:
			writeStatus(w, stdhttp.StatusNotFound, "endpoint not found")
		}
	})

	// Middlewares wrap
	var handler stdhttp.Handler = mux
	handler = middleware.Logging(cfg.Logger)(handler)
	handler = middleware.CORS(handler)
	return handler
}

func writeStatus(w stdhttp.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
	})
}

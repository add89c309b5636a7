package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/faeln1/snapcode/internal/app/services"
	"github.com/faeln1/snapcode/internal/domain/payload"
)

type QRController struct {
	workspace services.WorkspaceService
	export    services.ExportService
}

func NewQRController(ws services.WorkspaceService, ex services.ExportService) *QRController {
	return &QRController{workspace: ws, export: ex}
}

// Generate formats the form input for modeName and renders it
func (c *QRController) Generate(w http.ResponseWriter, r *http.Request, modeName string) {
	mode, err := payload.ParseMode(modeName)
	if err != nil || !mode.Generative() {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: mode %q", ErrInvalidParam, modeName))
		return
	}

	var in payload.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view, err := c.workspace.Generate(r.Context(), mode, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (c *QRController) Current(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.workspace.View())
}

// Download sends the rendered code as a PNG attachment, or as text with ?format=ascii
func (c *QRController) Download(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "ascii" {
		art, err := c.export.ASCII(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, art)
		return
	}

	dl, err := c.export.Download(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.PNG)
}

// Copy writes the payload to the host clipboard
func (c *QRController) Copy(w http.ResponseWriter, r *http.Request) {
	out, err := c.export.Copy(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Publish uploads the rendered code to object storage
func (c *QRController) Publish(w http.ResponseWriter, r *http.Request) {
	out, err := c.export.Publish(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

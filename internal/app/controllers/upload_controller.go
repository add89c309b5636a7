package controllers

import (
	"errors"
	"net/http"

	"github.com/faeln1/snapcode/internal/app/services"
	"github.com/faeln1/snapcode/internal/platform/scan"
)

type UploadController struct {
	service  services.WorkspaceService
	maxBytes int64
}

func NewUploadController(s services.WorkspaceService, maxBytes int64) *UploadController {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &UploadController{service: s, maxBytes: maxBytes}
}

// Upload decodes the QR code in the multipart "file" field
func (c *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes)
	if err := r.ParseMultipartForm(c.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeMessage(w, http.StatusBadRequest, MsgNotImage)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, MsgNotImage)
		return
	}
	defer file.Close()

	view, err := c.service.Upload(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrNotImage), errors.Is(err, scan.ErrNotFound):
			writeServiceError(w, err)
		default:
			// every other pipeline failure gets the generic message
			writeServiceError(w, scan.ErrDecodeFailed)
		}
		return
	}
	writeJSON(w, http.StatusOK, view)
}

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/faeln1/snapcode/internal/app/services"
	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/platform/camera"
	"github.com/faeln1/snapcode/internal/platform/export"
	"github.com/faeln1/snapcode/internal/platform/qr"
	"github.com/faeln1/snapcode/internal/platform/scan"
)

var ErrInvalidParam = errors.New("invalid param")

// Inline messages shown by the page.
const (
	MsgNotImage     = "Please upload an image file"
	MsgNoCode       = "No QR code found in image"
	MsgDecodeFailed = "Failed to decode QR code. Please try another image."
	MsgCopyFailed   = "Failed to copy text"
	MsgRenderFailed = "Failed to generate QR code"
	MsgCameraDenied = "Unable to access camera. Please check permissions."
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors to a status and the page's message.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidParam),
		errors.Is(err, payload.ErrUnknownMode),
		errors.Is(err, services.ErrModeNotGenerative):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, scan.ErrNotImage):
		writeMessage(w, http.StatusBadRequest, MsgNotImage)
	case errors.Is(err, scan.ErrNotFound):
		writeMessage(w, http.StatusUnprocessableEntity, MsgNoCode)
	case errors.Is(err, scan.ErrDecodeFailed):
		writeMessage(w, http.StatusUnprocessableEntity, MsgDecodeFailed)
	case errors.Is(err, qr.ErrAllTiersFailed):
		writeMessage(w, http.StatusBadGateway, MsgRenderFailed)
	case errors.Is(err, qr.ErrSuperseded):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, export.ErrEmptyTarget), errors.Is(err, export.ErrEmptyData):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, export.ErrClipboard):
		writeMessage(w, http.StatusServiceUnavailable, MsgCopyFailed)
	case errors.Is(err, services.ErrStorageDisabled):
		writeError(w, http.StatusNotImplemented, err)
	case errors.Is(err, camera.ErrPermission):
		writeMessage(w, http.StatusForbidden, MsgCameraDenied)
	case errors.Is(err, camera.ErrNoCamera):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, camera.ErrInterrupted):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, services.ErrWorkspaceClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

package controllers

import (
	"net/http"

	"github.com/faeln1/snapcode/internal/app/services"
)

type ScanController struct {
	service services.WorkspaceService
}

func NewScanController(s services.WorkspaceService) *ScanController {
	return &ScanController{service: s}
}

// Start switches to the scan tab and opens the camera
func (c *ScanController) Start(w http.ResponseWriter, r *http.Request) {
	status, err := c.service.StartScan(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

func (c *ScanController) Stop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.service.StopScan(r.Context()))
}

// Status reports the camera session and the last scanned payload
func (c *ScanController) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.service.View())
}

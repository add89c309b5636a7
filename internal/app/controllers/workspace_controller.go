package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/faeln1/snapcode/internal/app/services"
	"github.com/faeln1/snapcode/internal/domain/payload"
	"github.com/faeln1/snapcode/internal/domain/workspace"
)

type WorkspaceController struct {
	service services.WorkspaceService
}

func NewWorkspaceController(s services.WorkspaceService) *WorkspaceController {
	return &WorkspaceController{service: s}
}

// Get returns the active tab with its payload and rendered code
func (c *WorkspaceController) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.service.View())
}

// SetMode switches the active tab
func (c *WorkspaceController) SetMode(w http.ResponseWriter, r *http.Request) {
	var in workspace.SetModeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := payload.ParseMode(in.Mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	view, err := c.service.SetMode(r.Context(), mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

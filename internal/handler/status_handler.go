package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/service"
)

// StatusHandler handles GET/POST /api/status.
type StatusHandler struct {
	svc service.StatusService
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(svc service.StatusService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

type createStatusRequest struct {
	ClientName string `json:"client_name"`
}

// Create handles POST /api/status.
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStatusRequest
	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "Request body must be a JSON object.")
		return
	}

	check, err := h.svc.Create(r.Context(), req.ClientName)
	if err != nil {
		if errors.Is(err, service.ErrClientNameRequired) {
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
			return
		}
		logging.FromContext(r.Context()).Error("create status check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	writeJSON(w, http.StatusOK, check)
}

// List handles GET /api/status.
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	checks, err := h.svc.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list status checks failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if checks == nil {
		checks = []*model.StatusCheck{}
	}
	writeJSON(w, http.StatusOK, checks)
}

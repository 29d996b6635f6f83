package api

import (
	"net/http"

	service "github.com/minty99/maistats/internal/app"
)

// StatusDependencies defines the session operations used by StatusHandler.
type StatusDependencies interface {
	Status() service.Status
	StartRefresh() string
}

// StatusHandler reports refresh state and starts refreshes.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Status())
}

type refreshResponse struct {
	CycleID string `json:"cycle_id"`
}

// HandleRefresh handles POST /refresh. A running refresh is superseded.
func (h *StatusHandler) HandleRefresh(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusAccepted, refreshResponse{CycleID: h.deps.StartRefresh()})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/minty99/maistats/internal/app"
)

// EndpointsDependencies defines the session operations used by EndpointsHandler.
type EndpointsDependencies interface {
	Endpoints() service.Endpoints
	SetEndpoints(ctx context.Context, ep service.Endpoints) error
}

// EndpointsHandler reads and replaces the provider base URLs.
type EndpointsHandler struct {
	deps EndpointsDependencies
}

// NewEndpointsHandler creates a new endpoints handler.
func NewEndpointsHandler(deps EndpointsDependencies) *EndpointsHandler {
	return &EndpointsHandler{deps: deps}
}

// HandleGet handles GET /endpoints.
func (h *EndpointsHandler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Endpoints())
}

// HandlePut handles PUT /endpoints. Omitted fields keep their current value.
// A change closes the detail lookup and starts a refresh.
func (h *EndpointsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ep := h.deps.Endpoints()
	if err := json.NewDecoder(r.Body).Decode(&ep); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := h.deps.SetEndpoints(r.Context(), ep); err != nil {
		if errors.Is(err, service.ErrInvalidEndpoint) {
			writeError(w, http.StatusBadRequest, "invalid_endpoint", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.deps.Endpoints())
}

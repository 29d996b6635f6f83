package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/minty99/maistats/internal/adapters/gateway"
	service "github.com/minty99/maistats/internal/app"
)

// DetailDependencies defines the session operations used by DetailHandler.
type DetailDependencies interface {
	Detail() service.Detail
	OpenDetail(ctx context.Context, title string) (service.Detail, error)
	CloseDetail()
}

// DetailHandler serves the single-song detail lookup.
type DetailHandler struct {
	deps DetailDependencies
}

// NewDetailHandler creates a new detail handler.
func NewDetailHandler(deps DetailDependencies) *DetailHandler {
	return &DetailHandler{deps: deps}
}

// HandleOpen handles GET /songs/{title}/detail, superseding any running lookup.
func (h *DetailHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	d, err := h.deps.OpenDetail(r.Context(), title)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, d)
	case service.IsSuperseded(err):
		writeError(w, http.StatusConflict, "superseded", err)
	case gateway.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		var apiErr *gateway.APIError
		code := "upstream_error"
		if errors.As(err, &apiErr) && apiErr.Code != "" {
			code = apiErr.Code
		}
		writeError(w, http.StatusBadGateway, code, err)
	}
}

// HandleCurrent handles GET /songs/detail.
func (h *DetailHandler) HandleCurrent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Detail())
}

// HandleClose handles DELETE /songs/detail.
func (h *DetailHandler) HandleClose(w http.ResponseWriter, _ *http.Request) {
	h.deps.CloseDetail()
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/internal/domain/types"
)

const maxFilterBody = 64 << 10

// FiltersDependencies defines the session operations used by FiltersHandler.
type FiltersDependencies interface {
	ScoreFilter() query.ScoreFilter
	SetScoreFilter(ctx context.Context, f query.ScoreFilter)
	PlaylogFilter() query.PlaylogFilter
	SetPlaylogFilter(ctx context.Context, f query.PlaylogFilter)
}

// FiltersHandler reads and replaces the stored filters. Bodies use the
// persisted blob form and are decoded field by field, so unknown or
// mistyped fields fall back to defaults instead of failing the request.
type FiltersHandler struct {
	deps FiltersDependencies
}

// NewFiltersHandler creates a new filters handler.
func NewFiltersHandler(deps FiltersDependencies) *FiltersHandler {
	return &FiltersHandler{deps: deps}
}

// HandleGetScores handles GET /filters/scores.
func (h *FiltersHandler) HandleGetScores(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.ScoreFilter())
}

// HandlePutScores handles PUT /filters/scores.
func (h *FiltersHandler) HandlePutScores(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	f := query.DecodeScoreFilter(body)
	h.deps.SetScoreFilter(r.Context(), f)
	writeJSON(w, http.StatusOK, h.deps.ScoreFilter())
}

// HandleToggleRank handles POST /filters/scores/rank?token=T, adding or
// removing one rank option token, ~AAA included.
func (h *FiltersHandler) HandleToggleRank(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token != types.RankGroupLabel && !types.Rank(token).Valid() {
		writeError(w, http.StatusBadRequest, "bad_rank", fmt.Errorf("%w: token=%q", ErrBadParam, token))
		return
	}
	f := h.deps.ScoreFilter()
	f.Ranks = query.ToggleRank(f.Ranks, token)
	h.deps.SetScoreFilter(r.Context(), f)
	writeJSON(w, http.StatusOK, h.deps.ScoreFilter())
}

// HandleGetPlaylogs handles GET /filters/playlogs.
func (h *FiltersHandler) HandleGetPlaylogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.PlaylogFilter())
}

// HandlePutPlaylogs handles PUT /filters/playlogs.
func (h *FiltersHandler) HandlePutPlaylogs(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.deps.SetPlaylogFilter(r.Context(), query.DecodePlaylogFilter(body))
	writeJSON(w, http.StatusOK, h.deps.PlaylogFilter())
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFilterBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	if len(body) > maxFilterBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, maxFilterBody)
	}
	return body, nil
}

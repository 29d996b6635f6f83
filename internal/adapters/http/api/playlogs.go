package api

import (
	"fmt"
	"net/http"

	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
)

// PlaylogsDependencies defines the session operations used by PlaylogsHandler.
type PlaylogsDependencies interface {
	PlaylogFilter() query.PlaylogFilter
	PlaylogSort() query.SortSpec[query.PlaylogSortKey]
	TogglePlaylogSort(key query.PlaylogSortKey) query.SortSpec[query.PlaylogSortKey]
	QueryPlaylogs(f query.PlaylogFilter, spec query.SortSpec[query.PlaylogSortKey]) service.PlaylogResult
}

// PlaylogsHandler serves playlog rows.
type PlaylogsHandler struct {
	deps PlaylogsDependencies
}

// NewPlaylogsHandler creates a new playlogs handler.
func NewPlaylogsHandler(deps PlaylogsDependencies) *PlaylogsHandler {
	return &PlaylogsHandler{deps: deps}
}

type playlogsResponse struct {
	Rows  []model.PlaylogRow                   `json:"rows"`
	Count int                                  `json:"count"`
	Total int                                  `json:"total"`
	Label string                               `json:"label"`
	Sort  query.SortSpec[query.PlaylogSortKey] `json:"sort"`
}

// HandleList handles GET /playlogs.
func (h *PlaylogsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	f, err := playlogFilterParams(v, h.deps.PlaylogFilter())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	spec, err := sortParams(v, h.deps.PlaylogSort(), query.ParsePlaylogSortKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := parsePage(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res := h.deps.QueryPlaylogs(f, spec)
	lo, hi := p.apply(len(res.Rows))
	writeJSON(w, http.StatusOK, playlogsResponse{
		Rows:  res.Rows[lo:hi],
		Count: len(res.Rows),
		Total: res.Total,
		Label: fmt.Sprintf("%d/%d", len(res.Rows), res.Total),
		Sort:  res.Sort,
	})
}

// HandleSort handles POST /playlogs/sort?key=K.
func (h *PlaylogsHandler) HandleSort(w http.ResponseWriter, r *http.Request) {
	key, err := query.ParsePlaylogSortKey(r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_sort_key", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.TogglePlaylogSort(key))
}

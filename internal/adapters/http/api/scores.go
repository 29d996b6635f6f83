package api

import (
	"fmt"
	"net/http"

	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/derive"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
)

// ScoresDependencies defines the session operations used by ScoresHandler.
type ScoresDependencies interface {
	ScoreFilter() query.ScoreFilter
	ScoreSort() query.SortSpec[query.ScoreSortKey]
	ToggleScoreSort(key query.ScoreSortKey) query.SortSpec[query.ScoreSortKey]
	Options() query.Options
	VersionOptions() []string
	QueryScores(f query.ScoreFilter, spec query.SortSpec[query.ScoreSortKey]) service.ScoreResult
	Endpoints() service.Endpoints
}

// ScoresHandler serves score rows and their option sets.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreRowView struct {
	model.ScoreRow
	CoverURL *string `json:"cover_url,omitempty"`
}

type scoresResponse struct {
	Rows  []scoreRowView                     `json:"rows"`
	Count int                                `json:"count"`
	Total int                                `json:"total"`
	Label string                             `json:"label"`
	Sort  query.SortSpec[query.ScoreSortKey] `json:"sort"`
}

// HandleList handles GET /scores. Query parameters override the stored
// filter and the active sort for this request only.
func (h *ScoresHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	f, err := scoreFilterParams(v, h.deps.ScoreFilter(), h.deps.VersionOptions())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	spec, err := sortParams(v, h.deps.ScoreSort(), query.ParseScoreSortKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p, err := parsePage(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res := h.deps.QueryScores(f, spec)
	base := h.deps.Endpoints().SongInfoURL
	lo, hi := p.apply(len(res.Rows))
	rows := make([]scoreRowView, 0, hi-lo)
	for _, row := range res.Rows[lo:hi] {
		rows = append(rows, scoreRowView{ScoreRow: row, CoverURL: coverURL(base, row.ImageName)})
	}
	writeJSON(w, http.StatusOK, scoresResponse{
		Rows:  rows,
		Count: len(res.Rows),
		Total: res.Total,
		Label: fmt.Sprintf("%d/%d", len(res.Rows), res.Total),
		Sort:  res.Sort,
	})
}

// HandleSort handles POST /scores/sort?key=K.
func (h *ScoresHandler) HandleSort(w http.ResponseWriter, r *http.Request) {
	key, err := query.ParseScoreSortKey(r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_sort_key", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ToggleScoreSort(key))
}

type optionsResponse struct {
	query.Options
	SelectedRankItems []string `json:"selected_rank_items"`
	VersionSelection  string   `json:"version_selection"`
}

// HandleOptions handles GET /options.
func (h *ScoresHandler) HandleOptions(w http.ResponseWriter, _ *http.Request) {
	opts := h.deps.Options()
	f := h.deps.ScoreFilter()
	writeJSON(w, http.StatusOK, optionsResponse{
		Options:           opts,
		SelectedRankItems: query.SelectedRankItems(f.Ranks, opts.Ranks),
		VersionSelection:  f.VersionSelection,
	})
}

func coverURL(base string, imageName *string) *string {
	if imageName == nil || *imageName == "" {
		return nil
	}
	u := derive.CoverURL(base, *imageName)
	return &u
}


// Package api serves the explorer session over a local HTTP query surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/query"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the session implementation.
type Dependencies interface {
	Status() service.Status
	StartRefresh() string

	ScoreFilter() query.ScoreFilter
	SetScoreFilter(ctx context.Context, f query.ScoreFilter)
	PlaylogFilter() query.PlaylogFilter
	SetPlaylogFilter(ctx context.Context, f query.PlaylogFilter)

	ScoreSort() query.SortSpec[query.ScoreSortKey]
	ToggleScoreSort(key query.ScoreSortKey) query.SortSpec[query.ScoreSortKey]
	PlaylogSort() query.SortSpec[query.PlaylogSortKey]
	TogglePlaylogSort(key query.PlaylogSortKey) query.SortSpec[query.PlaylogSortKey]

	Options() query.Options
	VersionOptions() []string
	QueryScores(f query.ScoreFilter, spec query.SortSpec[query.ScoreSortKey]) service.ScoreResult
	QueryPlaylogs(f query.PlaylogFilter, spec query.SortSpec[query.PlaylogSortKey]) service.PlaylogResult

	Endpoints() service.Endpoints
	SetEndpoints(ctx context.Context, ep service.Endpoints) error

	Detail() service.Detail
	OpenDetail(ctx context.Context, title string) (service.Detail, error)
	CloseDetail()
}

// Server wires HTTP routes for the query surface.
type Server struct {
	healthHandler    *HealthHandler
	statusHandler    *StatusHandler
	scoresHandler    *ScoresHandler
	playlogsHandler  *PlaylogsHandler
	filtersHandler   *FiltersHandler
	endpointsHandler *EndpointsHandler
	detailHandler    *DetailHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statusHandler:    NewStatusHandler(deps),
		scoresHandler:    NewScoresHandler(deps),
		playlogsHandler:  NewPlaylogsHandler(deps),
		filtersHandler:   NewFiltersHandler(deps),
		endpointsHandler: NewEndpointsHandler(deps),
		detailHandler:    NewDetailHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(name, h))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	route("GET /status", "status", s.statusHandler.HandleStatus)
	route("POST /refresh", "refresh", s.statusHandler.HandleRefresh)

	route("GET /scores", "scores", s.scoresHandler.HandleList)
	route("POST /scores/sort", "scores.sort", s.scoresHandler.HandleSort)
	route("GET /playlogs", "playlogs", s.playlogsHandler.HandleList)
	route("POST /playlogs/sort", "playlogs.sort", s.playlogsHandler.HandleSort)
	route("GET /options", "options", s.scoresHandler.HandleOptions)

	route("GET /filters/scores", "filters.scores", s.filtersHandler.HandleGetScores)
	route("PUT /filters/scores", "filters.scores", s.filtersHandler.HandlePutScores)
	route("POST /filters/scores/rank", "filters.scores.rank", s.filtersHandler.HandleToggleRank)
	route("GET /filters/playlogs", "filters.playlogs", s.filtersHandler.HandleGetPlaylogs)
	route("PUT /filters/playlogs", "filters.playlogs", s.filtersHandler.HandlePutPlaylogs)

	route("GET /endpoints", "endpoints", s.endpointsHandler.HandleGet)
	route("PUT /endpoints", "endpoints", s.endpointsHandler.HandlePut)

	route("GET /songs/detail", "detail", s.detailHandler.HandleCurrent)
	route("DELETE /songs/detail", "detail", s.detailHandler.HandleClose)
	route("GET /songs/{title}/detail", "detail", s.detailHandler.HandleOpen)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

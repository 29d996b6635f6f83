package testprovider

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minty99/maistats/internal/domain/model"
)

// Server serves a Dataset over both provider contracts and records the
// requests it receives.
type Server struct {
	mu       sync.RWMutex
	ds       *Dataset
	byTitle  map[string]model.CatalogEntry
	hits     map[string]int
	lookups  map[string]int
	inflight atomic.Int64
	peak     atomic.Int64

	latency     time.Duration
	gate        <-chan struct{}
	noVersions  bool
	failScores  atomic.Bool
	failDetails atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithSongGate holds song lookups until gate is closed or the client goes away.
func WithSongGate(gate <-chan struct{}) Option {
	return func(s *Server) { s.gate = gate }
}

// WithoutVersions makes the versions endpoint answer 404.
func WithoutVersions() Option {
	return func(s *Server) { s.noVersions = true }
}

// NewServer creates a Server for ds.
func NewServer(ds *Dataset, opts ...Option) *Server {
	s := &Server{hits: map[string]int{}, lookups: map[string]int{}}
	for _, opt := range opts {
		opt(s)
	}
	s.SetDataset(ds)
	return s
}

// SetDataset swaps the served data.
func (s *Server) SetDataset(ds *Dataset) {
	byTitle := make(map[string]model.CatalogEntry, len(ds.Catalog))
	for _, e := range ds.Catalog {
		byTitle[model.NormalizeTitle(e.Title)] = e
	}
	s.mu.Lock()
	s.ds = ds
	s.byTitle = byTitle
	s.mu.Unlock()
}

// FailScores makes the rated scores endpoint answer 503 with a maintenance body.
func (s *Server) FailScores(fail bool) { s.failScores.Store(fail) }

// FailDetails makes the detail endpoint answer 500.
func (s *Server) FailDetails(fail bool) { s.failDetails.Store(fail) }

// Hits returns how many requests hit routes starting with prefix.
func (s *Server) Hits(prefix string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for path, c := range s.hits {
		if strings.HasPrefix(path, prefix) {
			n += c
		}
	}
	return n
}

// Lookups returns per-title song lookup counts.
func (s *Server) Lookups() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.lookups))
	for k, v := range s.lookups {
		out[k] = v
	}
	return out
}

// PeakConcurrency returns the highest number of simultaneous song lookups seen.
func (s *Server) PeakConcurrency() int { return int(s.peak.Load()) }

const songPathPrefix = "/api/songs/by-title/"

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scores/rated", s.handleScores)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	mux.HandleFunc("GET /api/scores/detail/{title}", s.handleDetail)
	mux.HandleFunc("GET /api/songs/versions", s.handleVersions)
	mux.HandleFunc("GET /api/songs/by-title/{title}", s.handleSong)
	mux.HandleFunc("GET /api/cover/{name}", s.handleCover)
	return s.track(mux)
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		if strings.HasPrefix(r.URL.Path, songPathPrefix) {
			defer s.enter()()
		}
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// enter counts a song lookup as in flight, latency included, and returns
// the matching exit.
func (s *Server) enter() func() {
	n := s.inflight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { s.inflight.Add(-1) }
}

func (s *Server) dataset() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

func (s *Server) handleScores(w http.ResponseWriter, _ *http.Request) {
	if s.failScores.Load() {
		writeError(w, http.StatusServiceUnavailable, "MAINTENANCE", "record collector is under maintenance", true)
		return
	}
	writeJSON(w, http.StatusOK, s.dataset().Scores)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	logs := s.dataset().Playlogs
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "BAD_LIMIT", "limit must be a non-negative integer", false)
			return
		}
		logs = logs[:min(n, len(logs))]
	}
	if logs == nil {
		logs = []model.PlaylogRecord{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if s.failDetails.Load() {
		writeError(w, http.StatusInternalServerError, "", "detail lookup failed", false)
		return
	}
	title := r.PathValue("title")
	var out []model.DetailRecord
	for _, sc := range s.dataset().Scores {
		if sc.Title != title {
			continue
		}
		out = append(out, model.DetailRecord{
			Title:             sc.Title,
			ChartType:         sc.ChartType,
			Difficulty:        sc.Difficulty,
			AchievementX10000: sc.AchievementX10000,
			Rank:              sc.Rank,
			FC:                sc.FC,
			Sync:              sc.Sync,
			DXScore:           sc.DXScore,
			DXScoreMax:        sc.DXScoreMax,
			LastPlayedAt:      sc.LastPlayedAt,
			PlayCount:         sc.PlayCount,
		})
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no records for "+title, false)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVersions(w http.ResponseWriter, _ *http.Request) {
	if s.noVersions {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "versions unavailable", false)
		return
	}
	writeJSON(w, http.StatusOK, s.dataset().Versions)
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	title := r.PathValue("title")
	s.mu.Lock()
	s.lookups[title]++
	entry, ok := s.byTitle[model.NormalizeTitle(title)]
	s.mu.Unlock()

	if s.gate != nil {
		select {
		case <-s.gate:
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		writeError(w, http.StatusNotFound, "SONG_NOT_FOUND", "song not found", false)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// 1x1 transparent PNG.
var pixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (s *Server) handleCover(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(pixel)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, maintenance bool) {
	body := map[string]any{"message": message}
	if code != "" {
		body["code"] = code
	}
	if maintenance {
		body["maintenance"] = true
	}
	writeJSON(w, status, body)
}

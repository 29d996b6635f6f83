// Package service provides the explorer session: it sequences refreshes,
// owns the current row sets and serves queries over them.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/adapters/mq/worker"
	"github.com/minty99/maistats/internal/adapters/provider"
	"github.com/minty99/maistats/internal/adapters/repository"
	"github.com/minty99/maistats/internal/domain/derive"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/pkg/logger"
	"github.com/robfig/cron/v3"
)

// State is the refresh state of a session.
type State string

// Refresh states.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Endpoints are the provider base URLs.
type Endpoints struct {
	SongInfoURL        string `json:"song_info_url"`
	RecordCollectorURL string `json:"record_collector_url"`
}

func (e Endpoints) normalized() Endpoints {
	return Endpoints{
		SongInfoURL:        gateway.NormalizeBaseURL(e.SongInfoURL),
		RecordCollectorURL: gateway.NormalizeBaseURL(e.RecordCollectorURL),
	}
}

// Progress is the metadata resolution progress of the current cycle. Total is
// nil until the title set is known.
type Progress struct {
	Done  int  `json:"done"`
	Total *int `json:"total"`
}

// Status summarizes the session.
type Status struct {
	CycleID     string     `json:"cycle_id,omitempty"`
	State       State      `json:"state"`
	Progress    Progress   `json:"progress"`
	Error       string     `json:"error,omitempty"`
	ScoreRows   int        `json:"score_rows"`
	PlaylogRows int        `json:"playlog_rows"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Endpoints   Endpoints  `json:"endpoints"`
}

// Session is one explorer session. All methods are safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	gw             *gateway.Client
	store          repository.Store
	builder        *derive.Builder
	defaults       Endpoints
	concurrency    int
	recentLimit    int
	schedule       string
	refreshOnStart bool
	logger         logger.Logger

	base       context.Context
	baseCancel context.CancelFunc
	cron       *cron.Cron
	started    bool

	endpoints Endpoints

	// refresh cycle
	gen        uint64
	cancelRun  context.CancelFunc
	cycleID    string
	state      State
	progress   Progress
	lastError  string
	updatedAt  *time.Time
	scores     []model.ScoreRow
	playlogs   []model.PlaylogRow
	versionOpt []string

	// query state
	scoreFilter   query.ScoreFilter
	playlogFilter query.PlaylogFilter
	scoreSort     query.SortSpec[query.ScoreSortKey]
	playlogSort   query.SortSpec[query.PlaylogSortKey]

	// detail lookup
	detailGen    uint64
	cancelDetail context.CancelFunc
	detail       Detail
}

// New constructs a Session with default configuration. Call Start to load
// stored preferences.
func New(opts ...Option) *Session {
	s := &Session{
		concurrency: worker.DefaultConcurrency,
		recentLimit: provider.DefaultRecentLimit,
		defaults: Endpoints{
			SongInfoURL:        "http://localhost:3001",
			RecordCollectorURL: "http://localhost:3000",
		},
		state:         StateIdle,
		scoreFilter:   query.DefaultScoreFilter(),
		playlogFilter: query.DefaultPlaylogFilter(),
		scoreSort:     query.DefaultScoreSort(),
		playlogSort:   query.DefaultPlaylogSort(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gw == nil {
		s.gw = gateway.New()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(nil)
	}
	if s.builder == nil {
		s.builder = derive.NewBuilder()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.endpoints = s.defaults
	s.base, s.baseCancel = context.WithCancel(context.Background())
	return s
}

// Start loads stored preferences, arms the refresh schedule and optionally
// starts the first refresh.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.loadPreferences(ctx)

	if s.schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(s.schedule, func() { s.StartRefresh() }); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, s.schedule, err)
		}
		c.Start()
		s.cron = c
	}
	s.started = true
	endpoints := s.endpoints
	s.mu.Unlock()

	s.logger.Info(ctx, "session started",
		logger.String("song_info_url", endpoints.SongInfoURL),
		logger.String("record_collector_url", endpoints.RecordCollectorURL),
		logger.String("schedule", s.schedule),
		logger.Int("concurrency", s.concurrency))

	if s.refreshOnStart {
		s.StartRefresh()
	}
	return nil
}

// Stop cancels in-flight work and stops the schedule. Cancelled work leaves
// the visible state untouched.
func (s *Session) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.baseCancel()
	s.logger.Info(context.Background(), "session stopped")
}

// Status returns a summary of the session.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		CycleID:     s.cycleID,
		State:       s.state,
		Progress:    s.progress,
		Error:       s.lastError,
		ScoreRows:   len(s.scores),
		PlaylogRows: len(s.playlogs),
		UpdatedAt:   s.updatedAt,
		Endpoints:   s.endpoints,
	}
}

// Endpoints returns the active provider base URLs.
func (s *Session) Endpoints() Endpoints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoints
}

// SetEndpoints replaces the provider base URLs, persists them, closes the
// detail lookup and starts a refresh against the new providers.
func (s *Session) SetEndpoints(ctx context.Context, ep Endpoints) error {
	ep = ep.normalized()
	if ep.SongInfoURL == "" || ep.RecordCollectorURL == "" {
		return fmt.Errorf("%w: both base URLs are required", ErrInvalidEndpoint)
	}

	s.mu.Lock()
	s.endpoints = ep
	s.mu.Unlock()

	s.CloseDetail()
	s.persist(ctx, repository.KeySongInfoURL, ep.SongInfoURL)
	s.persist(ctx, repository.KeyRecordURL, ep.RecordCollectorURL)
	s.StartRefresh()
	return nil
}

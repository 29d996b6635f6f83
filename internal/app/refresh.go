package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/minty99/maistats/internal/adapters/mq/worker"
	"github.com/minty99/maistats/internal/adapters/provider"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/pkg/logger"
	"github.com/minty99/maistats/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// cycle is one refresh run. It may mutate session state only while gen is
// still the session's current generation.
type cycle struct {
	id        string
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc
	endpoints Endpoints
	log       logger.Logger
	start     time.Time
}

// payload is what a cycle fetches before resolution.
type payload struct {
	scores   []model.ScoreRecord
	playlogs []model.PlaylogRecord
	versions *model.VersionList
}

// StartRefresh supersedes any running refresh with a new one running in the
// background and returns its cycle id.
func (s *Session) StartRefresh() string {
	c := s.begin(s.base)
	go func() { _ = s.run(c) }()
	return c.id
}

// Refresh supersedes any running refresh and runs a new one to completion.
// It returns the provider error of a failed cycle; a superseded or
// cancelled cycle returns nil. When ctx itself is cancelled and no newer
// cycle starts, the state stays loading with the previous rows visible
// until the next refresh.
func (s *Session) Refresh(ctx context.Context) error {
	return s.run(s.begin(ctx))
}

func (s *Session) begin(parent context.Context) *cycle {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(s.base, cancel)
	id := uuid.NewString()

	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.gen++
	c := &cycle{
		id:  id,
		gen: s.gen,
		ctx: ctx,
		cancel: func() {
			stop()
			cancel()
		},
		endpoints: s.endpoints,
		log:       s.logger.Named("refresh"),
		start:     time.Now(),
	}
	s.cancelRun = c.cancel
	s.cycleID = id
	s.state = StateLoading
	s.progress = Progress{}
	s.lastError = ""
	s.mu.Unlock()

	metrics.UpdateMetadataProgress(0, 0)
	c.log.Info(ctx, "refresh started",
		logger.String("cycle_id", id),
		logger.String("record_collector_url", c.endpoints.RecordCollectorURL),
		logger.String("song_info_url", c.endpoints.SongInfoURL))
	return c
}

// commit applies fn to the session if c is still current.
func (s *Session) commit(c *cycle, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.gen != s.gen || c.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

func (s *Session) run(c *cycle) error {
	defer c.cancel()

	records := provider.NewRecordCollector(s.gw, c.endpoints.RecordCollectorURL, s.recentLimit)
	songs := provider.NewSongInfo(s.gw, c.endpoints.SongInfoURL)

	p, err := s.fetch(c, records, songs)
	if err != nil {
		return s.fail(c, err)
	}

	titles := distinctTitles(p)
	total := len(titles)
	s.commit(c, func() { s.progress = Progress{Done: 0, Total: &total} })
	metrics.UpdateMetadataProgress(0, total)

	resolver := worker.NewResolver(songs,
		worker.WithConcurrency(s.concurrency),
		worker.WithName(c.id),
		worker.WithLogger(c.log))
	catalog := resolver.Resolve(c.ctx, titles, func(done, total int) {
		if s.commit(c, func() { s.progress = Progress{Done: done, Total: &total} }) {
			metrics.UpdateMetadataProgress(done, total)
		}
	})
	if c.ctx.Err() != nil {
		return s.fail(c, c.ctx.Err())
	}

	scores := s.builder.BuildScoreRows(p.scores, catalog)
	playlogs := s.builder.BuildPlaylogRows(p.playlogs, catalog)
	versions := query.VersionOptions(p.versions, scores)

	var reset *query.ScoreFilter
	applied := s.commit(c, func() {
		now := time.Now()
		s.state = StateReady
		s.scores = scores
		s.playlogs = playlogs
		s.versionOpt = versions
		s.updatedAt = &now
		s.cancelRun = nil
		if sel := query.NormalizeVersionSelection(s.scoreFilter.VersionSelection, versions); sel != s.scoreFilter.VersionSelection {
			s.scoreFilter.VersionSelection = sel
			f := s.scoreFilter
			reset = &f
		}
	})
	if !applied {
		return s.fail(c, context.Canceled)
	}
	if reset != nil {
		s.persistScoreFilter(context.WithoutCancel(c.ctx), *reset)
	}

	elapsed := time.Since(c.start)
	metrics.RecordRefresh(metrics.OutcomeReady, float64(elapsed.Milliseconds()))
	metrics.UpdateRows(metrics.KindScores, len(scores))
	metrics.UpdateRows(metrics.KindPlaylogs, len(playlogs))
	c.log.Info(c.ctx, "refresh ready",
		logger.String("cycle_id", c.id),
		logger.Int("titles", total),
		logger.Int("resolved", len(catalog)),
		logger.Int("score_rows", len(scores)),
		logger.Int("playlog_rows", len(playlogs)),
		logger.Int("versions", len(versions)),
		logger.Duration("elapsed", elapsed))
	return nil
}

// fetch loads scores and playlogs in parallel. The version catalog is best
// effort and nil when unavailable.
func (s *Session) fetch(c *cycle, records provider.RecordSource, songs provider.SongSource) (payload, error) {
	var p payload
	g, ctx := errgroup.WithContext(c.ctx)
	g.Go(func() error {
		scores, err := records.RatedScores(ctx)
		p.scores = scores
		return err
	})
	g.Go(func() error {
		playlogs, err := records.RecentPlays(ctx)
		p.playlogs = playlogs
		return err
	})
	g.Go(func() error {
		versions, err := songs.Versions(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn(ctx, "version catalog unavailable, ordering from rows",
					logger.String("cycle_id", c.id), logger.Error(err))
			}
			return nil
		}
		p.versions = versions
		return nil
	})
	err := g.Wait()
	if err != nil && c.ctx.Err() != nil {
		return p, c.ctx.Err()
	}
	return p, err
}

// fail records err as the cycle outcome. Cancellation is silent and leaves
// the previous state visible.
func (s *Session) fail(c *cycle, err error) error {
	elapsed := float64(time.Since(c.start).Milliseconds())
	if c.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		metrics.RecordRefresh(metrics.OutcomeCancelled, elapsed)
		c.log.Debug(context.Background(), "refresh cancelled", logger.String("cycle_id", c.id))
		return nil
	}
	if !s.commit(c, func() {
		s.state = StateFailed
		s.lastError = err.Error()
		s.scores = nil
		s.playlogs = nil
		s.versionOpt = nil
		s.cancelRun = nil
	}) {
		metrics.RecordRefresh(metrics.OutcomeCancelled, elapsed)
		return nil
	}
	metrics.RecordRefresh(metrics.OutcomeFailed, elapsed)
	metrics.UpdateRows(metrics.KindScores, 0)
	metrics.UpdateRows(metrics.KindPlaylogs, 0)
	c.log.Error(c.ctx, "refresh failed", logger.String("cycle_id", c.id), logger.Error(err))
	return err
}

func distinctTitles(p payload) []string {
	seen := make(map[string]struct{}, len(p.scores))
	var out []string
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, r := range p.scores {
		add(r.Title)
	}
	for _, r := range p.playlogs {
		add(r.Title)
	}
	return out
}

package service

import (
	"context"
	"slices"
	"time"

	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/pkg/metrics"
)

// ScoreResult is one filtered, ordered view of the score rows.
type ScoreResult struct {
	Rows  []model.ScoreRow
	Total int
	Sort  query.SortSpec[query.ScoreSortKey]
}

// PlaylogResult is one filtered, ordered view of the playlog rows.
type PlaylogResult struct {
	Rows  []model.PlaylogRow
	Total int
	Sort  query.SortSpec[query.PlaylogSortKey]
}

// ScoreFilter returns the active score filter.
func (s *Session) ScoreFilter() query.ScoreFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneScoreFilter(s.scoreFilter)
}

// SetScoreFilter replaces the active score filter and persists it. The text
// query is never stored.
func (s *Session) SetScoreFilter(ctx context.Context, f query.ScoreFilter) {
	f = cloneScoreFilter(f)
	f.Query = ""
	s.mu.Lock()
	s.scoreFilter = f
	s.mu.Unlock()
	s.persistScoreFilter(ctx, f)
}

// PlaylogFilter returns the active playlog filter.
func (s *Session) PlaylogFilter() query.PlaylogFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlaylogFilter(s.playlogFilter)
}

// SetPlaylogFilter replaces the active playlog filter and persists it.
func (s *Session) SetPlaylogFilter(ctx context.Context, f query.PlaylogFilter) {
	f = clonePlaylogFilter(f)
	f.Query = ""
	s.mu.Lock()
	s.playlogFilter = f
	s.mu.Unlock()
	s.persistPlaylogFilter(ctx, f)
}

// ScoreSort returns the active score sort.
func (s *Session) ScoreSort() query.SortSpec[query.ScoreSortKey] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoreSort
}

// ToggleScoreSort applies a user pick of key and returns the new sort.
func (s *Session) ToggleScoreSort(key query.ScoreSortKey) query.SortSpec[query.ScoreSortKey] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreSort = s.scoreSort.Toggle(key)
	return s.scoreSort
}

// PlaylogSort returns the active playlog sort.
func (s *Session) PlaylogSort() query.SortSpec[query.PlaylogSortKey] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playlogSort
}

// TogglePlaylogSort applies a user pick of key and returns the new sort.
func (s *Session) TogglePlaylogSort(key query.PlaylogSortKey) query.SortSpec[query.PlaylogSortKey] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlogSort = s.playlogSort.Toggle(key)
	return s.playlogSort
}

// VersionOptions returns the selectable versions of the last ready cycle.
func (s *Session) VersionOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.versionOpt)
}

// Options returns the selectable filter values of the current score rows.
func (s *Session) Options() query.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.BuildOptions(s.scores, s.versionOpt)
}

// QueryScores filters and orders the current score rows.
func (s *Session) QueryScores(f query.ScoreFilter, spec query.SortSpec[query.ScoreSortKey]) ScoreResult {
	start := time.Now()
	s.mu.RLock()
	rows, versions := s.scores, s.versionOpt
	s.mu.RUnlock()

	out := query.FilterScores(rows, f, versions, spec)
	metrics.RecordQueryLatency(metrics.KindScores, float64(time.Since(start).Microseconds())/1000)
	return ScoreResult{Rows: out, Total: len(rows), Sort: spec}
}

// QueryPlaylogs filters and orders the current playlog rows.
func (s *Session) QueryPlaylogs(f query.PlaylogFilter, spec query.SortSpec[query.PlaylogSortKey]) PlaylogResult {
	start := time.Now()
	s.mu.RLock()
	rows := s.playlogs
	s.mu.RUnlock()

	out := query.FilterPlaylogs(rows, f, spec)
	metrics.RecordQueryLatency(metrics.KindPlaylogs, float64(time.Since(start).Microseconds())/1000)
	return PlaylogResult{Rows: out, Total: len(rows), Sort: spec}
}

func cloneScoreFilter(f query.ScoreFilter) query.ScoreFilter {
	f.Charts = slices.Clone(f.Charts)
	f.Difficulties = slices.Clone(f.Difficulties)
	f.Ranks = slices.Clone(f.Ranks)
	f.FCs = slices.Clone(f.FCs)
	f.Syncs = slices.Clone(f.Syncs)
	return f
}

func clonePlaylogFilter(f query.PlaylogFilter) query.PlaylogFilter {
	f.Charts = slices.Clone(f.Charts)
	f.Difficulties = slices.Clone(f.Difficulties)
	return f
}

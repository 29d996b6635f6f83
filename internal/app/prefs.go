package service

import (
	"context"
	"errors"

	"github.com/minty99/maistats/internal/adapters/repository"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/pkg/logger"
)

// loadPreferences reads stored endpoints and filters. Missing or corrupt
// values keep the defaults. Callers hold s.mu.
func (s *Session) loadPreferences(ctx context.Context) {
	ep := Endpoints{
		SongInfoURL:        repository.GetOr(ctx, s.store, repository.KeySongInfoURL, s.defaults.SongInfoURL),
		RecordCollectorURL: repository.GetOr(ctx, s.store, repository.KeyRecordURL, s.defaults.RecordCollectorURL),
	}
	s.endpoints = ep.normalized()

	if raw, ok := s.read(ctx, repository.KeyScoreFilters); ok {
		s.scoreFilter = query.DecodeScoreFilter([]byte(raw))
	}
	if raw, ok := s.read(ctx, repository.KeyPlaylogFilters); ok {
		s.playlogFilter = query.DecodePlaylogFilter([]byte(raw))
	}
}

func (s *Session) read(ctx context.Context, key string) (string, bool) {
	v, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "preference read failed", logger.String("key", key), logger.Error(err))
		}
		return "", false
	}
	return v, true
}

// persist writes a preference. Write failures are logged and never fail the caller.
func (s *Session) persist(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		s.logger.Warn(ctx, "preference write failed", logger.String("key", key), logger.Error(err))
	}
}

func (s *Session) persistScoreFilter(ctx context.Context, f query.ScoreFilter) {
	raw, err := query.EncodeScoreFilter(f)
	if err != nil {
		s.logger.Warn(ctx, "encode score filter", logger.Error(err))
		return
	}
	s.persist(ctx, repository.KeyScoreFilters, string(raw))
}

func (s *Session) persistPlaylogFilter(ctx context.Context, f query.PlaylogFilter) {
	raw, err := query.EncodePlaylogFilter(f)
	if err != nil {
		s.logger.Warn(ctx, "encode playlog filter", logger.Error(err))
		return
	}
	s.persist(ctx, repository.KeyPlaylogFilters, string(raw))
}

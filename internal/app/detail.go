package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/minty99/maistats/internal/adapters/provider"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/pkg/logger"
	"github.com/minty99/maistats/pkg/metrics"
)

// Detail is the state of the single-song detail lookup.
type Detail struct {
	LookupID string               `json:"lookup_id,omitempty"`
	Title    string               `json:"title"`
	Rows     []model.DetailRecord `json:"rows"`
	Loading  bool                 `json:"loading"`
	Error    string               `json:"error,omitempty"`
}

// Detail returns the current detail lookup state.
func (s *Session) Detail() Detail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

// OpenDetail supersedes any running detail lookup and fetches the per-chart
// records of title. A lookup superseded or closed before it finishes returns
// ErrSuperseded and leaves no trace.
func (s *Session) OpenDetail(ctx context.Context, title string) (Detail, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.base, cancel)
	defer stop()

	id := uuid.NewString()
	s.mu.Lock()
	if s.cancelDetail != nil {
		s.cancelDetail()
	}
	s.detailGen++
	gen := s.detailGen
	s.cancelDetail = cancel
	s.detail = Detail{LookupID: id, Title: title, Loading: true}
	records := provider.NewRecordCollector(s.gw, s.endpoints.RecordCollectorURL, s.recentLimit)
	s.mu.Unlock()

	log := s.logger.Named("detail")
	log.Debug(ctx, "detail lookup started", logger.String("lookup_id", id), logger.String("title", title))
	rows, err := records.SongDetail(ctx, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.detailGen {
		metrics.RecordDetailLookup(metrics.OutcomeCancelled)
		return Detail{}, fmt.Errorf("detail %q: %w", title, ErrSuperseded)
	}
	s.cancelDetail = nil
	if ctx.Err() != nil {
		s.detail = Detail{}
		metrics.RecordDetailLookup(metrics.OutcomeCancelled)
		return Detail{}, fmt.Errorf("detail %q: %w", title, ErrSuperseded)
	}
	if err != nil {
		metrics.RecordDetailLookup(metrics.OutcomeFailed)
		log.Warn(ctx, "detail lookup failed", logger.String("lookup_id", id), logger.Error(err))
		s.detail = Detail{LookupID: id, Title: title, Error: err.Error()}
		return s.detail, err
	}
	metrics.RecordDetailLookup(metrics.OutcomeOK)
	s.detail = Detail{LookupID: id, Title: title, Rows: rows}
	return s.detail, nil
}

// CloseDetail cancels any running detail lookup and clears the detail state.
func (s *Session) CloseDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelDetail != nil {
		s.cancelDetail()
		s.cancelDetail = nil
	}
	s.detailGen++
	s.detail = Detail{}
}

// IsSuperseded reports whether err comes from a superseded or closed request.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

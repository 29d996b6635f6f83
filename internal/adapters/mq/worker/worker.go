// Package worker resolves song titles to catalog metadata with a bounded
// pool of workers.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/minty99/maistats/internal/adapters/mq/queue"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/pkg/logger"
	"github.com/minty99/maistats/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of lookups allowed in flight at once.
const DefaultConcurrency = 8

// Lookup fetches the catalog entry of one title.
type Lookup interface {
	SongByTitle(ctx context.Context, title string) (model.CatalogEntry, error)
}

// Progress receives the number of finished titles out of the distinct total.
type Progress func(done, total int)

// Result is the outcome of one title lookup. Err is set when the title is
// unresolved.
type Result struct {
	Title string
	Entry model.CatalogEntry
	Err   error
}

// Resolved reports whether the lookup produced an entry.
func (r Result) Resolved() bool { return r.Err == nil }

// Resolver turns a set of titles into a Catalog. A Resolver holds no state
// between calls and can serve concurrent resolutions.
type Resolver struct {
	lookup      Lookup
	concurrency int
	name        string
	logger      logger.Logger
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:      lookup,
		concurrency: DefaultConcurrency,
		name:        "resolver",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// Resolve looks up every distinct title and returns the entries keyed by the
// normalized title of each response. Failed lookups are left out but still
// advance progress. When ctx is cancelled no further lookups are started and
// the partial result must be discarded by the caller.
func (r *Resolver) Resolve(ctx context.Context, titles []string, onProgress Progress) model.Catalog {
	q := queue.FromTitles(titles)
	total := q.Len()
	catalog := make(model.Catalog, total)
	if total == 0 {
		return catalog
	}

	start := time.Now()
	workers := min(r.concurrency, total)
	results := make(chan Result, total)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			metrics.AddResolverWorkers(1)
			defer metrics.AddResolverWorkers(-1)
			for {
				title, ok := queue.Claim(ctx, q)
				if !ok {
					return nil
				}
				entry, err := r.lookup.SongByTitle(ctx, title)
				results <- Result{Title: title, Entry: entry, Err: err}
			}
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		if ctx.Err() != nil {
			continue
		}
		done++
		if res.Resolved() {
			catalog[model.NormalizeTitle(res.Entry.Title)] = res.Entry
			metrics.RecordResolverTitle(metrics.OutcomeResolved)
		} else {
			metrics.RecordResolverTitle(metrics.OutcomeUnresolved)
			if !errors.Is(res.Err, context.Canceled) {
				r.logger.Debug(ctx, "title unresolved",
					logger.String("resolver", r.name),
					logger.String("title", res.Title),
					logger.Error(res.Err))
			}
		}
		if onProgress != nil {
			onProgress(done, total)
		}
	}

	metrics.RecordResolverDuration(float64(time.Since(start).Milliseconds()))
	r.logger.Debug(ctx, "resolution finished",
		logger.String("resolver", r.name),
		logger.Int("titles", total),
		logger.Int("resolved", len(catalog)),
		logger.Int("workers", workers),
		logger.Bool("cancelled", ctx.Err() != nil))
	return catalog
}

package service

import (
	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/adapters/repository"
	"github.com/minty99/maistats/internal/domain/derive"
	"github.com/minty99/maistats/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithGateway sets the HTTP gateway used for both providers.
func WithGateway(gw *gateway.Client) Option {
	return func(s *Session) {
		if gw != nil {
			s.gw = gw
		}
	}
}

// WithStore sets the preference store.
func WithStore(store repository.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaultEndpoints sets the base URLs used when none are stored.
func WithDefaultEndpoints(ep Endpoints) Option {
	return func(s *Session) {
		s.defaults = ep.normalized()
	}
}

// WithConcurrency bounds in-flight song lookups per refresh.
func WithConcurrency(n int) Option {
	return func(s *Session) {
		if n >= 1 {
			s.concurrency = n
		}
	}
}

// WithRecentLimit sets the playlog count requested per refresh.
func WithRecentLimit(n int) Option {
	return func(s *Session) {
		if n >= 1 {
			s.recentLimit = n
		}
	}
}

// WithSchedule arms a cron schedule that starts a refresh on every tick.
func WithSchedule(spec string) Option {
	return func(s *Session) {
		s.schedule = spec
	}
}

// WithRefreshOnStart starts a refresh from Start.
func WithRefreshOnStart(enabled bool) Option {
	return func(s *Session) {
		s.refreshOnStart = enabled
	}
}

// WithBuilder sets the row builder.
func WithBuilder(b *derive.Builder) Option {
	return func(s *Session) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

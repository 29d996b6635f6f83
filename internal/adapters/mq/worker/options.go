package worker

import (
	"github.com/minty99/maistats/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithConcurrency bounds the number of lookups in flight. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n >= 1 {
			r.concurrency = n
		}
	}
}

// WithName sets the resolver name used in logs.
func WithName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.name = name
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

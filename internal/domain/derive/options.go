package derive

import "time"

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source used for days-since-played.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLocation sets the zone used to parse and format played-at labels.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

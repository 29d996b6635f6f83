// Package repository persists user preferences: provider base URLs and the
// stored filter blobs.
package repository

import "context"

// Preference keys.
const (
	KeySongInfoURL    = "maistats.song-info-url"
	KeyRecordURL      = "maistats.record-url"
	KeyScoreFilters   = "maistats.score-filters"
	KeyPlaylogFilters = "maistats.playlog-filters"
)

// Store provides read/write access to string preferences.
type Store interface {
	// Get returns the stored value for key.
	// Returns ErrNotFound if nothing was stored under key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases the underlying resources.
	Close() error
}

// GetOr returns the stored value for key, or fallback when it is missing,
// empty or unreadable.
func GetOr(ctx context.Context, s Store, key, fallback string) string {
	v, err := s.Get(ctx, key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

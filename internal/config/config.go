// Package config defines the explorer's configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// SongInfoURL and RecordCollectorURL are the default provider base URLs.
	// Values persisted in the preference store take precedence.
	SongInfoURL        string `koanf:"song_info_url"`
	RecordCollectorURL string `koanf:"record_collector_url"`

	// MetadataConcurrency bounds in-flight song lookups per refresh.
	MetadataConcurrency int `koanf:"metadata_concurrency"`

	// RecentLimit is the playlog count requested from the record collector.
	RecentLimit int `koanf:"recent_limit"`

	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// PrefsPath is the SQLite preference database. Empty keeps preferences in memory.
	PrefsPath string `koanf:"prefs_path"`

	// RefreshSchedule is a cron spec such as "@every 10m". Empty disables scheduled refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`

	RefreshOnStart bool `koanf:"refresh_on_start"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		SongInfoURL:         "http://localhost:3001",
		RecordCollectorURL:  "http://localhost:3000",
		MetadataConcurrency: 8,
		RecentLimit:         10000,
		RequestTimeoutMS:    15000,
		PrefsPath:           defaultPrefsPath(),
		RefreshOnStart:      true,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SongInfoURL == "":
		return fmt.Errorf("%w: song_info_url must not be empty", ErrInvalidConfig)
	case c.RecordCollectorURL == "":
		return fmt.Errorf("%w: record_collector_url must not be empty", ErrInvalidConfig)
	case c.MetadataConcurrency < 1:
		return fmt.Errorf("%w: metadata_concurrency must be at least 1", ErrInvalidConfig)
	case c.RecentLimit < 1:
		return fmt.Errorf("%w: recent_limit must be at least 1", ErrInvalidConfig)
	case c.RequestTimeoutMS < 0:
		return fmt.Errorf("%w: request_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}

func defaultPrefsPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "maistats", "prefs.db")
}

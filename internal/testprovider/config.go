// Package testprovider generates deterministic synthetic player data and
// serves it with the record collector and song info HTTP contracts.
package testprovider

import "time"

// Config controls dataset generation.
type Config struct {
	Songs          int       // number of catalog songs
	PlaysPerSong   int       // playlog entries generated per song
	Seed           uint64    // generator seed; equal seeds give equal datasets
	UnresolvedEach int       // every Nth song is missing from the catalog; 0 disables
	Now            time.Time // reference time for last-played stamps
}

// Defaults for Config fields left at zero.
const (
	DefaultSongs        = 40
	DefaultPlaysPerSong = 3
	DefaultSeed         = 7
)

func (c Config) withDefaults() Config {
	if c.Songs <= 0 {
		c.Songs = DefaultSongs
	}
	if c.PlaysPerSong < 0 {
		c.PlaysPerSong = 0
	} else if c.PlaysPerSong == 0 {
		c.PlaysPerSong = DefaultPlaysPerSong
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Now.IsZero() {
		c.Now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return c
}

// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/minty99/maistats/internal/domain/types"
)

// ScoreRecord is one best-score record per chart, as served by the record collector.
type ScoreRecord struct {
	Title             string            `json:"title"`
	ChartType         types.ChartType   `json:"chart_type"`
	Difficulty        types.Difficulty  `json:"diff_category"`
	AchievementX10000 *int64            `json:"achievement_x10000"`
	Rank              *types.Rank       `json:"rank"`
	FC                *types.FCStatus   `json:"fc"`
	Sync              *types.SyncStatus `json:"sync"`
	DXScore           *int64            `json:"dx_score"`
	DXScoreMax        *int64            `json:"dx_score_max"`
	RatingPoints      *int              `json:"rating_points,omitempty"`
	LastPlayedAt      *string           `json:"last_played_at,omitempty"`
	PlayCount         *int              `json:"play_count,omitempty"`
}

// PlaylogRecord is one play session from the record collector's history.
type PlaylogRecord struct {
	PlayedAtUnix         int64             `json:"played_at_unixtime"`
	PlayedAt             *string           `json:"played_at"`
	Track                *int              `json:"track"`
	Title                string            `json:"title"`
	ChartType            types.ChartType   `json:"chart_type"`
	Difficulty           *types.Difficulty `json:"diff_category"`
	AchievementX10000    *int64            `json:"achievement_x10000"`
	Rank                 *types.Rank       `json:"score_rank"`
	FC                   *types.FCStatus   `json:"fc"`
	Sync                 *types.SyncStatus `json:"sync"`
	DXScore              *int64            `json:"dx_score"`
	DXScoreMax           *int64            `json:"dx_score_max"`
	CreditPlayCount      *int              `json:"credit_play_count"`
	AchievementNewRecord *int              `json:"achievement_new_record"`
	FirstPlay            *int              `json:"first_play"`
	RatingPoints         *int              `json:"rating_points,omitempty"`
}

// DetailRecord is one per-chart row of a single song's detail lookup.
type DetailRecord struct {
	Title             string            `json:"title"`
	ChartType         types.ChartType   `json:"chart_type"`
	Difficulty        types.Difficulty  `json:"diff_category"`
	AchievementX10000 *int64            `json:"achievement_x10000,omitempty"`
	Rank              *types.Rank       `json:"rank,omitempty"`
	FC                *types.FCStatus   `json:"fc,omitempty"`
	Sync              *types.SyncStatus `json:"sync,omitempty"`
	DXScore           *int64            `json:"dx_score,omitempty"`
	DXScoreMax        *int64            `json:"dx_score_max,omitempty"`
	LastPlayedAt      *string           `json:"last_played_at,omitempty"`
	PlayCount         *int              `json:"play_count,omitempty"`
}

// Sheet is one chart entry of a catalog song.
type Sheet struct {
	ChartType     types.ChartType  `json:"chart_type"`
	Difficulty    types.Difficulty `json:"difficulty"`
	Level         string           `json:"level"`
	Version       *string          `json:"version"`
	InternalLevel *float64         `json:"internal_level"`
	UserLevel     *string          `json:"user_level"`
}

// CatalogEntry is one song from the song info service.
type CatalogEntry struct {
	Title     string  `json:"title"`
	ImageName *string `json:"image_name"`
	Sheets    []Sheet `json:"sheets"`
}

// Sheet returns the sheet for the given chart type and difficulty.
func (c *CatalogEntry) Sheet(chart types.ChartType, diff types.Difficulty) (Sheet, bool) {
	for _, s := range c.Sheets {
		if s.ChartType == chart && s.Difficulty == diff {
			return s, true
		}
	}
	return Sheet{}, false
}

// Version is one entry of the song info service's version list.
type Version struct {
	Index     int    `json:"version_index"`
	Name      string `json:"version_name"`
	SongCount int    `json:"song_count"`
}

// VersionList is the body of the versions endpoint.
type VersionList struct {
	Versions []Version `json:"versions"`
}

// Catalog maps normalized titles to resolved catalog entries.
type Catalog map[string]CatalogEntry

// Lookup returns the entry for a raw (not yet normalized) title.
func (c Catalog) Lookup(title string) (CatalogEntry, bool) {
	e, ok := c[NormalizeTitle(title)]
	return e, ok
}

// NormalizeTitle trims and lowercases a title for use as a join key.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ChartIdentity is the composite key joining scores, playlogs and sheets.
type ChartIdentity struct {
	Title      string
	ChartType  types.ChartType
	Difficulty types.Difficulty
}

// NewChartIdentity builds an identity with a normalized title.
func NewChartIdentity(title string, chart types.ChartType, diff types.Difficulty) ChartIdentity {
	return ChartIdentity{Title: NormalizeTitle(title), ChartType: chart, Difficulty: diff}
}

// String renders the identity as "title::type::difficulty".
func (id ChartIdentity) String() string {
	return id.Title + "::" + string(id.ChartType) + "::" + string(id.Difficulty)
}

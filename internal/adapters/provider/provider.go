// Package provider holds clients for the record collector and song info services.
package provider

import (
	"context"
	"net/url"
	"strconv"

	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/domain/derive"
	"github.com/minty99/maistats/internal/domain/model"
)

// DefaultRecentLimit approximates the full play history.
const DefaultRecentLimit = 10000

// Endpoint labels used in metrics.
const (
	EndpointScoresRated  = "scores.rated"
	EndpointRecent       = "recent"
	EndpointScoresDetail = "scores.detail"
	EndpointVersions     = "songs.versions"
	EndpointSongByTitle  = "songs.by_title"
)

// RecordSource serves a player's scores and play history.
type RecordSource interface {
	RatedScores(ctx context.Context) ([]model.ScoreRecord, error)
	RecentPlays(ctx context.Context) ([]model.PlaylogRecord, error)
	SongDetail(ctx context.Context, title string) ([]model.DetailRecord, error)
}

// SongSource serves the song catalog.
type SongSource interface {
	Versions(ctx context.Context) (*model.VersionList, error)
	SongByTitle(ctx context.Context, title string) (model.CatalogEntry, error)
	CoverURL(imageName string) string
}

// RecordCollector is the HTTP client of the record collector service.
type RecordCollector struct {
	base        string
	recentLimit int
	gw          *gateway.Client
}

// NewRecordCollector creates a client for base. A limit below 1 uses DefaultRecentLimit.
func NewRecordCollector(gw *gateway.Client, base string, recentLimit int) *RecordCollector {
	if recentLimit < 1 {
		recentLimit = DefaultRecentLimit
	}
	return &RecordCollector{base: gateway.NormalizeBaseURL(base), recentLimit: recentLimit, gw: gw}
}

// Base returns the normalized base URL.
func (r *RecordCollector) Base() string { return r.base }

// RatedScores fetches every best-score record.
func (r *RecordCollector) RatedScores(ctx context.Context) ([]model.ScoreRecord, error) {
	return gateway.GetJSON[[]model.ScoreRecord](ctx, r.gw, r.base+"/api/scores/rated", EndpointScoresRated)
}

// RecentPlays fetches the play history.
func (r *RecordCollector) RecentPlays(ctx context.Context) ([]model.PlaylogRecord, error) {
	u := r.base + "/api/recent?limit=" + strconv.Itoa(r.recentLimit)
	return gateway.GetJSON[[]model.PlaylogRecord](ctx, r.gw, u, EndpointRecent)
}

// SongDetail fetches per-chart records of one song.
func (r *RecordCollector) SongDetail(ctx context.Context, title string) ([]model.DetailRecord, error) {
	u := r.base + "/api/scores/detail/" + url.PathEscape(title)
	return gateway.GetJSON[[]model.DetailRecord](ctx, r.gw, u, EndpointScoresDetail)
}

// SongInfo is the HTTP client of the song info service.
type SongInfo struct {
	base string
	gw   *gateway.Client
}

// NewSongInfo creates a client for base.
func NewSongInfo(gw *gateway.Client, base string) *SongInfo {
	return &SongInfo{base: gateway.NormalizeBaseURL(base), gw: gw}
}

// Base returns the normalized base URL.
func (s *SongInfo) Base() string { return s.base }

// Versions fetches the chronological version list.
func (s *SongInfo) Versions(ctx context.Context) (*model.VersionList, error) {
	v, err := gateway.GetJSON[model.VersionList](ctx, s.gw, s.base+"/api/songs/versions", EndpointVersions)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SongByTitle fetches one catalog entry.
func (s *SongInfo) SongByTitle(ctx context.Context, title string) (model.CatalogEntry, error) {
	u := s.base + "/api/songs/by-title/" + url.PathEscape(title)
	return gateway.GetJSON[model.CatalogEntry](ctx, s.gw, u, EndpointSongByTitle)
}

// CoverURL returns the cover image URL of imageName. The image is never fetched here.
func (s *SongInfo) CoverURL(imageName string) string {
	return derive.CoverURL(s.base, imageName)
}

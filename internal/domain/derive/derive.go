// Package derive joins raw score and playlog records with catalog metadata
// and computes the derived row fields.
package derive

import (
	"math"
	"strconv"
	"time"

	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/scoring"
)

// PlayedAtLayout is the provider's last-played label format.
const PlayedAtLayout = "2006/01/02 15:04"

// Unix values above this are milliseconds.
const millisThreshold = 10_000_000_000

const day = 24 * time.Hour

// Builder derives rows. It holds no per-batch state and is safe for concurrent use.
type Builder struct {
	now func() time.Time
	loc *time.Location
}

// NewBuilder creates a Builder using the local clock and zone by default.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildScoreRows maps each score record to one row, preserving input order.
func (b *Builder) BuildScoreRows(records []model.ScoreRecord, catalog model.Catalog) []model.ScoreRow {
	now := b.now()
	rows := make([]model.ScoreRow, 0, len(records))
	for _, r := range records {
		id := model.NewChartIdentity(r.Title, r.ChartType, r.Difficulty)
		row := model.ScoreRow{
			Key:                id.String(),
			Title:              r.Title,
			NormalizedTitle:    id.Title,
			ChartType:          r.ChartType,
			Difficulty:         r.Difficulty,
			AchievementX10000:  r.AchievementX10000,
			AchievementPercent: AchievementPercent(r.AchievementX10000),
			Rank:               r.Rank,
			FC:                 r.FC,
			Sync:               r.Sync,
			DXScore:            r.DXScore,
			DXScoreMax:         r.DXScoreMax,
			DXRatio:            DXRatio(r.DXScore, r.DXScoreMax),
			PlayCount:          r.PlayCount,
		}
		if entry, ok := catalog[id.Title]; ok {
			row.ImageName = entry.ImageName
			if sheet, ok := entry.Sheet(r.ChartType, r.Difficulty); ok {
				row.Level = &sheet.Level
				row.InternalLevel = sheet.InternalLevel
				row.UserLevel = sheet.UserLevel
				row.Version = sheet.Version
			}
		}
		row.RatingPoints = scoring.Rating(r.RatingPoints, row.InternalLevel, row.AchievementPercent, r.FC)
		if r.LastPlayedAt != nil {
			if ts, ok := b.ParseLabel(*r.LastPlayedAt); ok {
				unix := ts.Unix()
				label := *r.LastPlayedAt
				row.LatestPlayedAtUnix = &unix
				row.LatestPlayedAtLabel = &label
				row.DaysSinceLastPlayed = DaysSince(now, ts)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildPlaylogRows maps each playlog record to one row, preserving input order.
func (b *Builder) BuildPlaylogRows(records []model.PlaylogRecord, catalog model.Catalog) []model.PlaylogRow {
	rows := make([]model.PlaylogRow, 0, len(records))
	for i, r := range records {
		title := model.NormalizeTitle(r.Title)
		row := model.PlaylogRow{
			Key:                strconv.FormatInt(r.PlayedAtUnix, 10) + "-" + strconv.Itoa(i),
			Title:              r.Title,
			NormalizedTitle:    title,
			ChartType:          r.ChartType,
			Difficulty:         r.Difficulty,
			PlayedAtUnix:       r.PlayedAtUnix,
			PlayedAtLabel:      b.playedAtLabel(r),
			Track:              r.Track,
			AchievementX10000:  r.AchievementX10000,
			AchievementPercent: AchievementPercent(r.AchievementX10000),
			Rank:               r.Rank,
			FC:                 r.FC,
			Sync:               r.Sync,
			DXScore:            r.DXScore,
			DXScoreMax:         r.DXScoreMax,
			DXRatio:            DXRatio(r.DXScore, r.DXScoreMax),
			CreditPlayCount:    r.CreditPlayCount,
			IsNewRecord:        flag(r.AchievementNewRecord),
			IsFirstPlay:        flag(r.FirstPlay),
		}
		if entry, ok := catalog[title]; ok {
			row.ImageName = entry.ImageName
			if r.Difficulty != nil {
				if sheet, ok := entry.Sheet(r.ChartType, *r.Difficulty); ok {
					row.Level = &sheet.Level
					row.InternalLevel = sheet.InternalLevel
					row.Version = sheet.Version
				}
			}
		}
		row.RatingPoints = scoring.Rating(r.RatingPoints, row.InternalLevel, row.AchievementPercent, r.FC)
		rows = append(rows, row)
	}
	return rows
}

// ParseLabel parses a "yyyy/mm/dd hh:mm" label in the builder's zone.
func (b *Builder) ParseLabel(label string) (time.Time, bool) {
	ts, err := time.ParseInLocation(PlayedAtLayout, label, b.loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// FormatUnix renders a unix timestamp (seconds or milliseconds) as a label.
func (b *Builder) FormatUnix(unix int64) string {
	return UnixTime(unix).In(b.loc).Format(PlayedAtLayout)
}

func (b *Builder) playedAtLabel(r model.PlaylogRecord) *string {
	if r.PlayedAt != nil && *r.PlayedAt != "" {
		label := *r.PlayedAt
		return &label
	}
	if r.PlayedAtUnix <= 0 {
		return nil
	}
	label := b.FormatUnix(r.PlayedAtUnix)
	return &label
}

// AchievementPercent converts a ×10000 achievement to a percentage.
func AchievementPercent(x10000 *int64) *float64 {
	if x10000 == nil {
		return nil
	}
	v := float64(*x10000) / 10000
	return &v
}

// DXRatio returns score/max, or nil when max is absent or not positive.
func DXRatio(score, scoreMax *int64) *float64 {
	if score == nil || scoreMax == nil || *scoreMax <= 0 {
		return nil
	}
	v := float64(*score) / float64(*scoreMax)
	return &v
}

// DaysSince returns whole days elapsed from ts to now, never negative.
func DaysSince(now, ts time.Time) *int {
	d := int(math.Floor(float64(now.Sub(ts)) / float64(day)))
	if d < 0 {
		d = 0
	}
	return &d
}

// UnixTime interprets a provider timestamp that may be in seconds or milliseconds.
func UnixTime(v int64) time.Time {
	if v > millisThreshold {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}

func flag(v *int) bool {
	return v != nil && *v > 0
}

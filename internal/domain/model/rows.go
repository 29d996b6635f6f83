package model

import "github.com/minty99/maistats/internal/domain/types"

// ScoreRow is a best-score record joined with catalog metadata.
type ScoreRow struct {
	Key                 string            `json:"key"`
	Title               string            `json:"title"`
	NormalizedTitle     string            `json:"normalized_title"`
	ChartType           types.ChartType   `json:"chart_type"`
	Difficulty          types.Difficulty  `json:"difficulty"`
	AchievementX10000   *int64            `json:"achievement_x10000"`
	AchievementPercent  *float64          `json:"achievement_percent"`
	Rank                *types.Rank       `json:"rank"`
	FC                  *types.FCStatus   `json:"fc"`
	Sync                *types.SyncStatus `json:"sync"`
	DXScore             *int64            `json:"dx_score"`
	DXScoreMax          *int64            `json:"dx_score_max"`
	DXRatio             *float64          `json:"dx_ratio"`
	RatingPoints        *int              `json:"rating_points"`
	Level               *string           `json:"level"`
	InternalLevel       *float64          `json:"internal_level"`
	UserLevel           *string           `json:"user_level"`
	Version             *string           `json:"version"`
	ImageName           *string           `json:"image_name"`
	PlayCount           *int              `json:"play_count"`
	LatestPlayedAtUnix  *int64            `json:"latest_played_at_unix"`
	LatestPlayedAtLabel *string           `json:"latest_played_at_label"`
	DaysSinceLastPlayed *int              `json:"days_since_last_played"`
}

// PlaylogRow is one play session joined with catalog metadata.
type PlaylogRow struct {
	Key                string            `json:"key"`
	Title              string            `json:"title"`
	NormalizedTitle    string            `json:"normalized_title"`
	ChartType          types.ChartType   `json:"chart_type"`
	Difficulty         *types.Difficulty `json:"difficulty"`
	PlayedAtUnix       int64             `json:"played_at_unix"`
	PlayedAtLabel      *string           `json:"played_at_label"`
	Track              *int              `json:"track"`
	AchievementX10000  *int64            `json:"achievement_x10000"`
	AchievementPercent *float64          `json:"achievement_percent"`
	Rank               *types.Rank       `json:"rank"`
	FC                 *types.FCStatus   `json:"fc"`
	Sync               *types.SyncStatus `json:"sync"`
	DXScore            *int64            `json:"dx_score"`
	DXScoreMax         *int64            `json:"dx_score_max"`
	DXRatio            *float64          `json:"dx_ratio"`
	RatingPoints       *int              `json:"rating_points"`
	Level              *string           `json:"level"`
	InternalLevel      *float64          `json:"internal_level"`
	Version            *string           `json:"version"`
	CreditPlayCount    *int              `json:"credit_play_count"`
	IsNewRecord        bool              `json:"is_new_record"`
	IsFirstPlay        bool              `json:"is_first_play"`
	ImageName          *string           `json:"image_name"`
}

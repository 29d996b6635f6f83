package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/query"
)

const none = "-"

func str[T ~string](v *T) string {
	if v == nil || *v == "" {
		return none
	}
	return string(*v)
}

func num[T ~int | ~int64](v *T) string {
	if v == nil {
		return none
	}
	return strconv.FormatInt(int64(*v), 10)
}

func percent(v *float64) string {
	if v == nil {
		return none
	}
	return strconv.FormatFloat(*v, 'f', 4, 64) + "%"
}

func decimal(v *float64, prec int) string {
	if v == nil {
		return none
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// ScoreTable renders score rows.
func ScoreTable(rows []model.ScoreRow) *Table {
	t := NewTable("TITLE", "TYPE", "DIFF", "LV", "INTERNAL", "ACHIEVEMENT", "RANK", "FC", "SYNC", "DX", "RATING", "VERSION", "LAST PLAYED", "DAYS")
	for i := range rows {
		r := &rows[i]
		t.Append(
			r.Title,
			string(r.ChartType),
			string(r.Difficulty),
			str(r.Level),
			decimal(r.InternalLevel, 1),
			percent(r.AchievementPercent),
			str(r.Rank),
			str(r.FC),
			str(r.Sync),
			decimal(r.DXRatio, 3),
			num(r.RatingPoints),
			str(r.Version),
			str(r.LatestPlayedAtLabel),
			num(r.DaysSinceLastPlayed),
		)
	}
	return t
}

// PlaylogTable renders playlog rows.
func PlaylogTable(rows []model.PlaylogRow) *Table {
	t := NewTable("PLAYED AT", "TRACK", "TITLE", "TYPE", "DIFF", "LV", "ACHIEVEMENT", "RANK", "FC", "SYNC", "RATING", "FLAGS")
	for i := range rows {
		r := &rows[i]
		var flags []string
		if r.IsNewRecord {
			flags = append(flags, "NEW")
		}
		if r.IsFirstPlay {
			flags = append(flags, "FIRST")
		}
		t.Append(
			str(r.PlayedAtLabel),
			num(r.Track),
			r.Title,
			string(r.ChartType),
			str(r.Difficulty),
			str(r.Level),
			percent(r.AchievementPercent),
			str(r.Rank),
			str(r.FC),
			str(r.Sync),
			num(r.RatingPoints),
			strings.Join(flags, ","),
		)
	}
	return t
}

// DetailTable renders the per-chart records of one song.
func DetailTable(records []model.DetailRecord) *Table {
	t := NewTable("TYPE", "DIFF", "ACHIEVEMENT", "RANK", "FC", "SYNC", "DX", "LAST PLAYED", "PLAYS")
	for _, r := range records {
		dx := none
		if r.DXScore != nil && r.DXScoreMax != nil {
			dx = fmt.Sprintf("%d/%d", *r.DXScore, *r.DXScoreMax)
		}
		t.Append(
			string(r.ChartType),
			string(r.Difficulty),
			percent(achievement(r.AchievementX10000)),
			str(r.Rank),
			str(r.FC),
			str(r.Sync),
			dx,
			str(r.LastPlayedAt),
			num(r.PlayCount),
		)
	}
	return t
}

func achievement(x10000 *int64) *float64 {
	if x10000 == nil {
		return nil
	}
	v := float64(*x10000) / 10000
	return &v
}

// WriteOptions writes the selectable filter values, one set per line.
func WriteOptions(w io.Writer, opts query.Options) error {
	lines := []struct {
		label  string
		values []string
	}{
		{"ranks", opts.RankItems},
		{"fc", toStrings(opts.FCs)},
		{"sync", toStrings(opts.Syncs)},
		{"versions", opts.Versions},
	}
	for _, l := range lines {
		v := none
		if len(l.values) > 0 {
			v = strings.Join(l.values, ", ")
		}
		if _, err := fmt.Fprintf(w, "%-9s %s\n", l.label+":", v); err != nil {
			return fmt.Errorf("write options: %w", err)
		}
	}
	return nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// CountLabel renders "shown/total".
func CountLabel(shown, total int) string {
	return strconv.Itoa(shown) + "/" + strconv.Itoa(total)
}

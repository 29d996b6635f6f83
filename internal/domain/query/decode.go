package query

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"

	"github.com/minty99/maistats/internal/domain/types"
	"github.com/spf13/cast"
)

// blob is a loosely typed persisted filter object.
type blob map[string]any

func parseBlob(raw []byte) blob {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var b blob
	if err := dec.Decode(&b); err != nil {
		return nil
	}
	return b
}

// number accepts only finite JSON numbers.
func (b blob) number(key string, fallback float64) float64 {
	switch v := b[key].(type) {
	case json.Number, float64:
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fallback
		}
		return f
	}
	return fallback
}

// boolean accepts only JSON booleans.
func (b blob) boolean(key string, fallback bool) bool {
	if v, ok := b[key].(bool); ok {
		return v
	}
	return fallback
}

func (b blob) strings(key string) []string {
	items, ok := b[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// enum keeps the string items of key that are in allowed.
func enum[T ~string](b blob, key string, allowed []T) []T {
	out := []T{}
	for _, s := range b.strings(key) {
		if slices.Contains(allowed, T(s)) {
			out = append(out, T(s))
		}
	}
	return out
}

// enumOrAll is enum falling back to every allowed value when nothing survives.
func enumOrAll[T ~string](b blob, key string, allowed []T) []T {
	if v := enum(b, key, allowed); len(v) > 0 {
		return v
	}
	return slices.Clone(allowed)
}

// DecodeScoreFilter decodes a persisted score filter. Each field that is
// missing or of the wrong type falls back to its default independently;
// unparseable input yields the default filter.
func DecodeScoreFilter(raw []byte) ScoreFilter {
	b := parseBlob(raw)
	d := DefaultScoreFilter()
	if b == nil {
		return d
	}
	return ScoreFilter{
		Charts:                 enumOrAll(b, "chartFilter", types.ChartTypes),
		Difficulties:           enumOrAll(b, "difficultyFilter", types.Difficulties),
		VersionSelection:       decodeVersionSelection(b),
		Ranks:                  WidenRanks(enum(b, "rankFilter", types.RankOrder)),
		FCs:                    enum(b, "fcFilter", types.FCOrder),
		Syncs:                  enum(b, "syncFilter", types.SyncOrder),
		IncludeNoAchievement:   b.boolean("includeNoAchievement", d.IncludeNoAchievement),
		IncludeNoInternalLevel: b.boolean("includeNoInternalLevel", d.IncludeNoInternalLevel),
		IncludeNeverPlayed:     b.boolean("includeNeverPlayed", d.IncludeNeverPlayed),
		AchievementMin:         b.number("achievementMin", d.AchievementMin),
		AchievementMax:         b.number("achievementMax", d.AchievementMax),
		InternalMin:            b.number("internalMin", d.InternalMin),
		InternalMax:            b.number("internalMax", d.InternalMax),
		DaysMin:                b.number("daysMin", d.DaysMin),
		DaysMax:                b.number("daysMax", d.DaysMax),
	}
}

// decodeVersionSelection prefers versionSelection and migrates a legacy
// single-item versionFilter array.
func decodeVersionSelection(b blob) string {
	if s, ok := b["versionSelection"].(string); ok {
		return s
	}
	if legacy := b.strings("versionFilter"); len(legacy) == 1 {
		return legacy[0]
	}
	return VersionAll
}

// DecodePlaylogFilter decodes a persisted playlog filter field by field.
func DecodePlaylogFilter(raw []byte) PlaylogFilter {
	b := parseBlob(raw)
	d := DefaultPlaylogFilter()
	if b == nil {
		return d
	}
	return PlaylogFilter{
		Charts:             enumOrAll(b, "chartFilter", types.ChartTypes),
		Difficulties:       enumOrAll(b, "difficultyFilter", types.Difficulties),
		IncludeUnknownDiff: b.boolean("includeUnknownDiff", d.IncludeUnknownDiff),
		NewRecordOnly:      b.boolean("newRecordOnly", d.NewRecordOnly),
		FirstPlayOnly:      b.boolean("firstPlayOnly", d.FirstPlayOnly),
		AchievementMin:     b.number("achievementMin", d.AchievementMin),
		AchievementMax:     b.number("achievementMax", d.AchievementMax),
	}
}

// EncodeScoreFilter renders f in the persisted blob form.
func EncodeScoreFilter(f ScoreFilter) ([]byte, error) {
	return json.Marshal(f)
}

// EncodePlaylogFilter renders f in the persisted blob form.
func EncodePlaylogFilter(f PlaylogFilter) ([]byte, error) {
	return json.Marshal(f)
}

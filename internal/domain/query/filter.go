// Package query filters and orders derived score and playlog rows.
//
// Every function is pure: inputs are never mutated and results are freshly
// allocated slices whose order depends only on the input order and the sort spec.
package query

import (
	"slices"

	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/types"
)

// Version selection tokens.
const (
	VersionAll = "ALL"
	VersionNew = "NEW"
	VersionOld = "OLD"
)

// newVersionCount is how many trailing versions count as NEW.
const newVersionCount = 2

// Range is an inclusive numeric range.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v is within r.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ScoreFilter is the filter spec for score rows. Field names of the JSON form
// match the persisted blob.
type ScoreFilter struct {
	Query                  string             `json:"-"`
	Charts                 []types.ChartType  `json:"chartFilter"`
	Difficulties           []types.Difficulty `json:"difficultyFilter"`
	VersionSelection       string             `json:"versionSelection"`
	Ranks                  []types.Rank       `json:"rankFilter"`
	FCs                    []types.FCStatus   `json:"fcFilter"`
	Syncs                  []types.SyncStatus `json:"syncFilter"`
	IncludeNoAchievement   bool               `json:"includeNoAchievement"`
	IncludeNoInternalLevel bool               `json:"includeNoInternalLevel"`
	IncludeNeverPlayed     bool               `json:"includeNeverPlayed"`
	AchievementMin         float64            `json:"achievementMin"`
	AchievementMax         float64            `json:"achievementMax"`
	InternalMin            float64            `json:"internalMin"`
	InternalMax            float64            `json:"internalMax"`
	DaysMin                float64            `json:"daysMin"`
	DaysMax                float64            `json:"daysMax"`
}

// PlaylogFilter is the filter spec for playlog rows.
type PlaylogFilter struct {
	Query              string             `json:"-"`
	Charts             []types.ChartType  `json:"chartFilter"`
	Difficulties       []types.Difficulty `json:"difficultyFilter"`
	IncludeUnknownDiff bool               `json:"includeUnknownDiff"`
	NewRecordOnly      bool               `json:"newRecordOnly"`
	FirstPlayOnly      bool               `json:"firstPlayOnly"`
	AchievementMin     float64            `json:"achievementMin"`
	AchievementMax     float64            `json:"achievementMax"`
}

// Default filter bounds.
const (
	DefaultAchievementMin = 0
	DefaultAchievementMax = 101
	DefaultInternalMin    = 1
	DefaultInternalMax    = 15.5
	DefaultDaysMin        = 0
	DefaultDaysMax        = 2000
)

// DefaultScoreFilter passes every score row.
func DefaultScoreFilter() ScoreFilter {
	return ScoreFilter{
		Charts:                 slices.Clone(types.ChartTypes),
		Difficulties:           slices.Clone(types.Difficulties),
		VersionSelection:       VersionAll,
		Ranks:                  []types.Rank{},
		FCs:                    []types.FCStatus{},
		Syncs:                  []types.SyncStatus{},
		IncludeNoAchievement:   true,
		IncludeNoInternalLevel: true,
		IncludeNeverPlayed:     true,
		AchievementMin:         DefaultAchievementMin,
		AchievementMax:         DefaultAchievementMax,
		InternalMin:            DefaultInternalMin,
		InternalMax:            DefaultInternalMax,
		DaysMin:                DefaultDaysMin,
		DaysMax:                DefaultDaysMax,
	}
}

// DefaultPlaylogFilter passes every playlog row.
func DefaultPlaylogFilter() PlaylogFilter {
	return PlaylogFilter{
		Charts:             slices.Clone(types.ChartTypes),
		Difficulties:       slices.Clone(types.Difficulties),
		IncludeUnknownDiff: true,
		AchievementMin:     DefaultAchievementMin,
		AchievementMax:     DefaultAchievementMax,
	}
}

// versionScope resolves a version selection against the ordered version list.
type versionScope struct {
	selection string
	latest    map[string]struct{}
	old       map[string]struct{}
}

func newVersionScope(selection string, versions []string) versionScope {
	s := versionScope{selection: selection, latest: map[string]struct{}{}, old: map[string]struct{}{}}
	cut := max(len(versions)-newVersionCount, 0)
	for i, v := range versions {
		if i >= cut {
			s.latest[v] = struct{}{}
		}
	}
	for _, v := range versions {
		if _, ok := s.latest[v]; !ok {
			s.old[v] = struct{}{}
		}
	}
	return s
}

func (s versionScope) match(version *string) bool {
	switch s.selection {
	case VersionAll, "":
		return true
	case VersionNew:
		return version != nil && contains(s.latest, *version)
	case VersionOld:
		return version != nil && contains(s.old, *version)
	default:
		return version != nil && *version == s.selection
	}
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}

// allowed reports whether v passes an allowed-set filter. A set that is empty
// or holds every value of universe passes everything; otherwise a nil value fails.
// universe is the full value domain (types.RankOrder and friends), not the
// options present in the data: a set equal to BuildOptions output still drops
// rows whose value is nil.
func allowed[T comparable](set, universe []T, v *T) bool {
	if len(set) == 0 || hasAll(set, universe) {
		return true
	}
	return v != nil && slices.Contains(set, *v)
}

// inRange applies an include-null toggle before the range check.
func inRange(v *float64, includeNull bool, r Range) bool {
	if v == nil {
		return includeNull
	}
	return r.Contains(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// match reports whether a row passes every predicate of f.
func (f ScoreFilter) match(row *model.ScoreRow, m *matcher, scope versionScope) bool {
	if !m.match(row.Title, deref(row.Version), deref(row.Level)) {
		return false
	}
	if !allowed(f.Charts, types.ChartTypes, &row.ChartType) || !allowed(f.Difficulties, types.Difficulties, &row.Difficulty) {
		return false
	}
	if !scope.match(row.Version) {
		return false
	}
	if !allowed(f.Ranks, types.RankOrder, row.Rank) || !allowed(f.FCs, types.FCOrder, row.FC) || !allowed(f.Syncs, types.SyncOrder, row.Sync) {
		return false
	}
	if !inRange(row.AchievementPercent, f.IncludeNoAchievement, Range{f.AchievementMin, f.AchievementMax}) {
		return false
	}
	if !inRange(row.InternalLevel, f.IncludeNoInternalLevel, Range{f.InternalMin, f.InternalMax}) {
		return false
	}
	var days *float64
	if row.DaysSinceLastPlayed != nil {
		d := float64(*row.DaysSinceLastPlayed)
		days = &d
	}
	return inRange(days, f.IncludeNeverPlayed, Range{f.DaysMin, f.DaysMax})
}

func (f PlaylogFilter) match(row *model.PlaylogRow, m *matcher) bool {
	if !m.match(row.Title, deref(row.PlayedAtLabel)) {
		return false
	}
	if !allowed(f.Charts, types.ChartTypes, &row.ChartType) {
		return false
	}
	if row.Difficulty == nil {
		if !f.IncludeUnknownDiff {
			return false
		}
	} else if !allowed(f.Difficulties, types.Difficulties, row.Difficulty) {
		return false
	}
	if f.NewRecordOnly && !row.IsNewRecord {
		return false
	}
	if f.FirstPlayOnly && !row.IsFirstPlay {
		return false
	}
	return inRange(row.AchievementPercent, true, Range{f.AchievementMin, f.AchievementMax})
}

// FilterScores returns the rows passing f, ordered by spec. versions is the
// chronologically ordered version list used for NEW and OLD.
func FilterScores(rows []model.ScoreRow, f ScoreFilter, versions []string, spec SortSpec[ScoreSortKey]) []model.ScoreRow {
	m := newMatcher(f.Query)
	scope := newVersionScope(f.VersionSelection, versions)
	out := make([]model.ScoreRow, 0, len(rows))
	for i := range rows {
		if f.match(&rows[i], m, scope) {
			out = append(out, rows[i])
		}
	}
	SortScores(out, spec)
	return out
}

// FilterPlaylogs returns the rows passing f, ordered by spec.
func FilterPlaylogs(rows []model.PlaylogRow, f PlaylogFilter, spec SortSpec[PlaylogSortKey]) []model.PlaylogRow {
	m := newMatcher(f.Query)
	out := make([]model.PlaylogRow, 0, len(rows))
	for i := range rows {
		if f.match(&rows[i], m) {
			out = append(out, rows[i])
		}
	}
	SortPlaylogs(out, spec)
	return out
}

// SortScores stably sorts rows in place.
func SortScores(rows []model.ScoreRow, spec SortSpec[ScoreSortKey]) {
	col := NewCollator()
	slices.SortStableFunc(rows, func(a, b model.ScoreRow) int {
		var r int
		switch spec.Key {
		case ScoreSortTitle:
			r = col.CompareString(a.Title, b.Title)
		case ScoreSortAchievement:
			r = CompareNullable(a.AchievementPercent, b.AchievementPercent)
		case ScoreSortRating:
			r = CompareNullable(a.RatingPoints, b.RatingPoints)
		case ScoreSortInternal:
			r = CompareNullable(a.InternalLevel, b.InternalLevel)
		case ScoreSortDXRatio:
			r = CompareNullable(a.DXRatio, b.DXRatio)
		case ScoreSortLastPlayed:
			r = CompareNullable(a.LatestPlayedAtUnix, b.LatestPlayedAtUnix)
		case ScoreSortDays:
			r = CompareNullable(a.DaysSinceLastPlayed, b.DaysSinceLastPlayed)
		}
		if spec.Desc {
			return -r
		}
		return r
	})
}

// SortPlaylogs stably sorts rows in place.
func SortPlaylogs(rows []model.PlaylogRow, spec SortSpec[PlaylogSortKey]) {
	col := NewCollator()
	slices.SortStableFunc(rows, func(a, b model.PlaylogRow) int {
		var r int
		switch spec.Key {
		case PlaylogSortPlayedAt:
			r = CompareNullable(&a.PlayedAtUnix, &b.PlayedAtUnix)
		case PlaylogSortAchievement:
			r = CompareNullable(a.AchievementPercent, b.AchievementPercent)
		case PlaylogSortRating:
			r = CompareNullable(a.RatingPoints, b.RatingPoints)
		case PlaylogSortDXRatio:
			r = CompareNullable(a.DXRatio, b.DXRatio)
		case PlaylogSortTitle:
			r = col.CompareString(a.Title, b.Title)
		}
		if spec.Desc {
			return -r
		}
		return r
	})
}

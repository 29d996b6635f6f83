package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/internal/domain/types"
)

// page is the slice of a result a client asked for.
type page struct {
	limit  int
	offset int
}

func (p page) apply(n int) (int, int) {
	lo := min(p.offset, n)
	hi := n
	if p.limit > 0 {
		hi = min(lo+p.limit, n)
	}
	return lo, hi
}

// list reads a multi-valued parameter given as repeated keys, commas or both.
func list(v url.Values, key string) ([]string, bool) {
	raw, ok := v[key]
	if !ok {
		return nil, false
	}
	var out []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out, true
}

func enumParam[T interface {
	~string
	Valid() bool
}](v url.Values, key string, dst *[]T) error {
	raw, ok := list(v, key)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		t := T(r)
		if !t.Valid() {
			return fmt.Errorf("%w: %s=%q", ErrBadParam, key, r)
		}
		out = append(out, t)
	}
	*dst = out
	return nil
}

func rankParam(v url.Values, dst *[]types.Rank) error {
	raw, ok := list(v, "rank")
	if !ok {
		return nil
	}
	var out []types.Rank
	for _, r := range raw {
		if r == types.RankGroupLabel {
			out = append(out, types.GroupedRanks...)
			continue
		}
		if !types.Rank(r).Valid() {
			return fmt.Errorf("%w: rank=%q", ErrBadParam, r)
		}
		out = append(out, types.Rank(r))
	}
	*dst = query.WidenRanks(out)
	return nil
}

func floatParam(v url.Values, key string, dst *float64) error {
	raw := v.Get(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %s=%q", ErrBadParam, key, raw)
	}
	*dst = f
	return nil
}

func boolParam(v url.Values, key string, dst *bool) error {
	raw := v.Get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrBadParam, key, raw)
	}
	*dst = b
	return nil
}

func intParam(v url.Values, key string, dst *int) error {
	raw := v.Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: %s=%q", ErrBadParam, key, raw)
	}
	*dst = n
	return nil
}

func parsePage(v url.Values) (page, error) {
	var p page
	if err := intParam(v, "limit", &p.limit); err != nil {
		return p, err
	}
	err := intParam(v, "offset", &p.offset)
	return p, err
}

// scoreFilterParams overlays query parameters on the stored score filter.
func scoreFilterParams(v url.Values, f query.ScoreFilter, versions []string) (query.ScoreFilter, error) {
	f.Query = v.Get("q")
	if sel := v.Get("version"); sel != "" {
		if err := query.ValidateVersionSelection(sel, versions); err != nil {
			return f, fmt.Errorf("%w: %w", ErrBadParam, err)
		}
		f.VersionSelection = sel
	}
	steps := []error{
		enumParam(v, "chart", &f.Charts),
		enumParam(v, "difficulty", &f.Difficulties),
		rankParam(v, &f.Ranks),
		enumParam(v, "fc", &f.FCs),
		enumParam(v, "sync", &f.Syncs),
		boolParam(v, "include_no_achievement", &f.IncludeNoAchievement),
		boolParam(v, "include_no_internal_level", &f.IncludeNoInternalLevel),
		boolParam(v, "include_never_played", &f.IncludeNeverPlayed),
		floatParam(v, "achievement_min", &f.AchievementMin),
		floatParam(v, "achievement_max", &f.AchievementMax),
		floatParam(v, "internal_min", &f.InternalMin),
		floatParam(v, "internal_max", &f.InternalMax),
		floatParam(v, "days_min", &f.DaysMin),
		floatParam(v, "days_max", &f.DaysMax),
	}
	return f, firstErr(steps)
}

// playlogFilterParams overlays query parameters on the stored playlog filter.
func playlogFilterParams(v url.Values, f query.PlaylogFilter) (query.PlaylogFilter, error) {
	f.Query = v.Get("q")
	steps := []error{
		enumParam(v, "chart", &f.Charts),
		enumParam(v, "difficulty", &f.Difficulties),
		boolParam(v, "include_unknown_diff", &f.IncludeUnknownDiff),
		boolParam(v, "new_record_only", &f.NewRecordOnly),
		boolParam(v, "first_play_only", &f.FirstPlayOnly),
		floatParam(v, "achievement_min", &f.AchievementMin),
		floatParam(v, "achievement_max", &f.AchievementMax),
	}
	return f, firstErr(steps)
}

// sortParams overrides the active sort with sort and desc parameters. A sort
// key without desc takes the key's initial direction.
func sortParams[K ~string](v url.Values, spec query.SortSpec[K], parse func(string) (K, error)) (query.SortSpec[K], error) {
	if raw := v.Get("sort"); raw != "" {
		key, err := parse(raw)
		if err != nil {
			return spec, fmt.Errorf("%w: %w", ErrBadParam, err)
		}
		spec = query.SortSpec[K]{}.Toggle(key)
	}
	err := boolParam(v, "desc", &spec.Desc)
	return spec, err
}

func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

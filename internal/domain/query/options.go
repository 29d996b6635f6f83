package query

import (
	"fmt"
	"slices"

	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/types"
)

var (
	rankIndex    = types.OrderIndex(types.RankOrder)
	fcIndex      = types.OrderIndex(types.FCOrder)
	syncIndex    = types.OrderIndex(types.SyncOrder)
	versionIndex = types.OrderIndex(types.VersionOrder)
)

// Options are the selectable filter values derived from the unfiltered score rows.
type Options struct {
	Ranks     []types.Rank       `json:"ranks"`
	RankItems []string           `json:"rank_items"`
	FCs       []types.FCStatus   `json:"fcs"`
	Syncs     []types.SyncStatus `json:"syncs"`
	Versions  []string           `json:"versions"`
}

// BuildOptions collects the values present in rows. versions is passed through.
func BuildOptions(rows []model.ScoreRow, versions []string) Options {
	ranks := RankOptions(rows)
	return Options{
		Ranks:     ranks,
		RankItems: GroupRankOptions(ranks),
		FCs:       FCOptions(rows),
		Syncs:     SyncOptions(rows),
		Versions:  slices.Clone(versions),
	}
}

// RankOptions returns the distinct ranks present in rows, best first.
func RankOptions(rows []model.ScoreRow) []types.Rank {
	return present(rows, func(r *model.ScoreRow) *types.Rank { return r.Rank }, rankIndex)
}

// FCOptions returns the distinct full-combo tiers present in rows, best first.
func FCOptions(rows []model.ScoreRow) []types.FCStatus {
	return present(rows, func(r *model.ScoreRow) *types.FCStatus { return r.FC }, fcIndex)
}

// SyncOptions returns the distinct sync tiers present in rows, best first.
func SyncOptions(rows []model.ScoreRow) []types.SyncStatus {
	return present(rows, func(r *model.ScoreRow) *types.SyncStatus { return r.Sync }, syncIndex)
}

func present[T ~string](rows []model.ScoreRow, get func(*model.ScoreRow) *T, index map[string]int) []T {
	seen := make(map[T]struct{})
	var values []T
	for i := range rows {
		v := get(&rows[i])
		if v == nil {
			continue
		}
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		values = append(values, *v)
	}
	return SortByOrder(values, index)
}

// SortByOrder returns values ordered by their position in index; values
// missing from index follow in locale order.
func SortByOrder[T ~string](values []T, index map[string]int) []T {
	out := slices.Clone(values)
	col := NewCollator()
	slices.SortStableFunc(out, func(a, b T) int {
		ai, aok := index[string(a)]
		bi, bok := index[string(b)]
		switch {
		case aok && bok:
			return ai - bi
		case aok:
			return -1
		case bok:
			return 1
		}
		return col.CompareString(string(a), string(b))
	})
	return out
}

// GroupRankOptions folds AAA and everything below into a single group token.
func GroupRankOptions(ranks []types.Rank) []string {
	var out []string
	grouped := false
	for _, r := range ranks {
		if slices.Contains(types.GroupedRanks, r) {
			if !grouped {
				out = append(out, types.RankGroupLabel)
				grouped = true
			}
			continue
		}
		out = append(out, string(r))
	}
	return out
}

// SelectedRankItems renders a rank filter as option tokens. The group token is
// shown only when every grouped rank is selected.
func SelectedRankItems(selected, options []types.Rank) []string {
	var out []string
	if slices.Contains(GroupRankOptions(options), types.RankGroupLabel) && hasAll(selected, types.GroupedRanks) {
		out = append(out, types.RankGroupLabel)
	}
	for _, r := range options {
		if !slices.Contains(types.GroupedRanks, r) && slices.Contains(selected, r) {
			out = append(out, string(r))
		}
	}
	return out
}

// ToggleRank adds or removes one rank option token from a rank filter.
func ToggleRank(current []types.Rank, token string) []types.Rank {
	if token == types.RankGroupLabel {
		if hasAll(current, types.GroupedRanks) {
			return slices.DeleteFunc(slices.Clone(current), func(r types.Rank) bool {
				return slices.Contains(types.GroupedRanks, r)
			})
		}
		return WidenRanks(append(slices.Clone(current), types.GroupedRanks...))
	}
	r := types.Rank(token)
	if !r.Valid() {
		return slices.Clone(current)
	}
	if slices.Contains(current, r) {
		return slices.DeleteFunc(slices.Clone(current), func(v types.Rank) bool { return v == r })
	}
	return append(slices.Clone(current), r)
}

// WidenRanks expands a rank filter holding any grouped rank to the whole group,
// deduplicated and in rank order.
func WidenRanks(ranks []types.Rank) []types.Rank {
	if !slices.ContainsFunc(ranks, func(r types.Rank) bool { return slices.Contains(types.GroupedRanks, r) }) {
		return ranks
	}
	seen := make(map[types.Rank]struct{})
	var out []types.Rank
	for _, r := range append(slices.Clone(ranks), types.GroupedRanks...) {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return SortByOrder(out, rankIndex)
}

func hasAll[T comparable](set, want []T) bool {
	for _, w := range want {
		if !slices.Contains(set, w) {
			return false
		}
	}
	return true
}

// VersionOptions lists selectable versions in chronological order. Names come
// from the version catalog when it was fetched, otherwise from the rows.
func VersionOptions(catalog *model.VersionList, rows []model.ScoreRow) []string {
	var names []string
	if catalog != nil {
		for _, v := range catalog.Versions {
			if v.Name != "" {
				names = append(names, v.Name)
			}
		}
	} else {
		seen := make(map[string]struct{})
		for i := range rows {
			v := rows[i].Version
			if v == nil || *v == "" {
				continue
			}
			if _, ok := seen[*v]; ok {
				continue
			}
			seen[*v] = struct{}{}
			names = append(names, *v)
		}
	}
	return SortByOrder(names, versionIndex)
}

// NormalizeVersionSelection resets a selection that no longer names a version to ALL.
func NormalizeVersionSelection(selection string, options []string) string {
	switch selection {
	case VersionAll, VersionNew, VersionOld:
		return selection
	}
	if slices.Contains(options, selection) {
		return selection
	}
	return VersionAll
}

// ValidateVersionSelection rejects a selection that is neither a token nor in options.
func ValidateVersionSelection(selection string, options []string) error {
	if NormalizeVersionSelection(selection, options) != selection {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, selection)
	}
	return nil
}

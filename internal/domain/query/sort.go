package query

import (
	"cmp"
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ScoreSortKey is a sortable score column.
type ScoreSortKey string

// Score sort keys.
const (
	ScoreSortTitle       ScoreSortKey = "title"
	ScoreSortAchievement ScoreSortKey = "achievement"
	ScoreSortRating      ScoreSortKey = "rating"
	ScoreSortInternal    ScoreSortKey = "internal"
	ScoreSortDXRatio     ScoreSortKey = "dxRatio"
	ScoreSortLastPlayed  ScoreSortKey = "lastPlayed"
	ScoreSortDays        ScoreSortKey = "days"
)

// ScoreSortKeys lists every score sort key.
var ScoreSortKeys = []ScoreSortKey{
	ScoreSortTitle,
	ScoreSortAchievement,
	ScoreSortRating,
	ScoreSortInternal,
	ScoreSortDXRatio,
	ScoreSortLastPlayed,
	ScoreSortDays,
}

// PlaylogSortKey is a sortable playlog column.
type PlaylogSortKey string

// Playlog sort keys.
const (
	PlaylogSortPlayedAt    PlaylogSortKey = "playedAt"
	PlaylogSortAchievement PlaylogSortKey = "achievement"
	PlaylogSortRating      PlaylogSortKey = "rating"
	PlaylogSortDXRatio     PlaylogSortKey = "dxRatio"
	PlaylogSortTitle       PlaylogSortKey = "title"
)

// PlaylogSortKeys lists every playlog sort key.
var PlaylogSortKeys = []PlaylogSortKey{
	PlaylogSortPlayedAt,
	PlaylogSortAchievement,
	PlaylogSortRating,
	PlaylogSortDXRatio,
	PlaylogSortTitle,
}

// SortSpec is the active sort column and direction.
type SortSpec[K ~string] struct {
	Key  K    `json:"key"`
	Desc bool `json:"desc"`
}

// Toggle returns the spec after the user picks key: the same key flips the
// direction, a new key starts descending except title which starts ascending.
func (s SortSpec[K]) Toggle(key K) SortSpec[K] {
	if s.Key == key {
		return SortSpec[K]{Key: key, Desc: !s.Desc}
	}
	return SortSpec[K]{Key: key, Desc: string(key) != "title"}
}

// DefaultScoreSort sorts by last played, newest first.
func DefaultScoreSort() SortSpec[ScoreSortKey] {
	return SortSpec[ScoreSortKey]{Key: ScoreSortLastPlayed, Desc: true}
}

// DefaultPlaylogSort sorts by play time, newest first.
func DefaultPlaylogSort() SortSpec[PlaylogSortKey] {
	return SortSpec[PlaylogSortKey]{Key: PlaylogSortPlayedAt, Desc: true}
}

// ParseScoreSortKey validates a score sort key.
func ParseScoreSortKey(s string) (ScoreSortKey, error) {
	return parseKey(s, ScoreSortKeys)
}

// ParsePlaylogSortKey validates a playlog sort key.
func ParsePlaylogSortKey(s string) (PlaylogSortKey, error) {
	return parseKey(s, PlaylogSortKeys)
}

func parseKey[K ~string](s string, keys []K) (K, error) {
	for _, k := range keys {
		if string(k) == s {
			return k, nil
		}
	}
	var zero K
	return zero, fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

// CompareNullable orders nil before every non-nil value.
func CompareNullable[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}

// NewCollator returns a Korean-locale collator. Collators are not safe for
// concurrent use; create one per sort.
func NewCollator() *collate.Collator {
	return collate.New(language.Korean)
}

// Package scoring implements the maimai DX rating formula.
package scoring

import (
	"math"

	"github.com/minty99/maistats/internal/domain/types"
)

// MaxAchievement is the highest achievement percentage that counts toward rating.
const MaxAchievement = 100.5

type breakpoint struct {
	min         float64
	coefficient float64
}

// Evaluated top-down, first match wins.
var breakpoints = []breakpoint{
	{100.5, 22.4},
	{100.4999, 22.2},
	{100.0, 21.6},
	{99.9999, 21.4},
	{99.5, 21.1},
	{99.0, 20.8},
	{98.9999, 20.6},
	{98.0, 20.3},
	{97.0, 20.0},
	{96.9999, 17.6},
	{94.0, 16.8},
	{90.0, 15.2},
	{80.0, 13.6},
	{79.9999, 12.8},
	{75.0, 12.0},
	{70.0, 11.2},
	{60.0, 9.6},
	{50.0, 8.0},
	{40.0, 6.4},
	{30.0, 4.8},
	{20.0, 3.2},
	{10.0, 1.6},
}

// Coefficient returns the rank coefficient for an achievement percentage.
func Coefficient(achievement float64) float64 {
	for _, b := range breakpoints {
		if achievement >= b.min {
			return b.coefficient
		}
	}
	return 0
}

// Points computes rating points for one chart. AP and AP+ add a bonus point.
func Points(internalLevel, achievement float64, fc *types.FCStatus) int {
	clamped := math.Min(achievement, MaxAchievement)
	base := math.Floor(Coefficient(clamped) * internalLevel * clamped / 100)
	if math.IsNaN(base) || math.IsInf(base, 0) || base <= 0 {
		base = 0
	}
	points := int(base)
	if fc != nil && fc.IsAllPerfect() {
		points++
	}
	return points
}

// Rating returns precomputed when set, otherwise the formula result.
// It returns nil when the formula inputs are missing.
func Rating(precomputed *int, internalLevel, achievement *float64, fc *types.FCStatus) *int {
	if precomputed != nil {
		v := *precomputed
		return &v
	}
	if internalLevel == nil || achievement == nil {
		return nil
	}
	v := Points(*internalLevel, *achievement, fc)
	return &v
}

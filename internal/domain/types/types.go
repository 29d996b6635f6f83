// Package types contains the closed value domains shared across the application
// and the priority tables used to order them.
package types

import "slices"

// ChartType is the chart variant of a song.
type ChartType string

// Chart types.
const (
	ChartSTD ChartType = "STD"
	ChartDX  ChartType = "DX"
)

// Difficulty is the difficulty category of a chart.
type Difficulty string

// Difficulty categories.
const (
	DifficultyBasic    Difficulty = "BASIC"
	DifficultyAdvanced Difficulty = "ADVANCED"
	DifficultyExpert   Difficulty = "EXPERT"
	DifficultyMaster   Difficulty = "MASTER"
	DifficultyReMaster Difficulty = "Re:MASTER"
)

// Rank is the score rank of a play.
type Rank string

// FCStatus is the full-combo tier of a play.
type FCStatus string

// Full-combo tiers.
const (
	FCAllPerfectPlus FCStatus = "AP+"
	FCAllPerfect     FCStatus = "AP"
	FCFullComboPlus  FCStatus = "FC+"
	FCFullCombo      FCStatus = "FC"
)

// SyncStatus is the synchronized-play tier of a play.
type SyncStatus string

// ChartTypes lists every chart type in display order.
var ChartTypes = []ChartType{ChartSTD, ChartDX}

// Difficulties lists every difficulty in display order.
var Difficulties = []Difficulty{
	DifficultyBasic,
	DifficultyAdvanced,
	DifficultyExpert,
	DifficultyMaster,
	DifficultyReMaster,
}

// RankOrder is the rank priority table, best first.
var RankOrder = []Rank{"SSS+", "SSS", "SS+", "SS", "S+", "S", "AAA", "AA", "A", "BBB", "BB", "B", "C", "D"}

// FCOrder is the full-combo priority table, best first.
var FCOrder = []FCStatus{FCAllPerfectPlus, FCAllPerfect, FCFullComboPlus, FCFullCombo}

// SyncOrder is the sync priority table, best first.
var SyncOrder = []SyncStatus{"FDX+", "FDX", "FS+", "FS", "SYNC"}

// VersionOrder is the chronological game version table.
var VersionOrder = []string{
	"maimai",
	"maimai PLUS",
	"GreeN",
	"GreeN PLUS",
	"ORANGE",
	"ORANGE PLUS",
	"PiNK",
	"PiNK PLUS",
	"MURASAKi",
	"MURASAKi PLUS",
	"MiLK",
	"MiLK PLUS",
	"FiNALE",
	"maimaiでらっくす",
	"maimaiでらっくす PLUS",
	"Splash",
	"Splash PLUS",
	"UNiVERSE",
	"UNiVERSE PLUS",
	"FESTiVAL",
	"FESTiVAL PLUS",
	"BUDDiES",
	"BUDDiES PLUS",
	"PRiSM",
	"PRiSM PLUS",
	"CiRCLE",
}

// RankGroupLabel is the option token standing for AAA and every rank below it.
const RankGroupLabel = "~AAA"

// GroupedRanks are the ranks folded into RankGroupLabel.
var GroupedRanks = RankOrder[slices.Index(RankOrder, "AAA"):]

// OrderIndex maps each value of an ordered table to its position.
func OrderIndex[T ~string](order []T) map[string]int {
	m := make(map[string]int, len(order))
	for i, v := range order {
		m[string(v)] = i
	}
	return m
}

// Valid reports whether c is one of the known chart types.
func (c ChartType) Valid() bool { return slices.Contains(ChartTypes, c) }

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool { return slices.Contains(Difficulties, d) }

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool { return slices.Contains(RankOrder, r) }

// Valid reports whether f is one of the known full-combo tiers.
func (f FCStatus) Valid() bool { return slices.Contains(FCOrder, f) }

// Valid reports whether s is one of the known sync tiers.
func (s SyncStatus) Valid() bool { return slices.Contains(SyncOrder, s) }

// IsAllPerfect reports whether f earns the all-perfect rating bonus.
func (f FCStatus) IsAllPerfect() bool {
	return f == FCAllPerfect || f == FCAllPerfectPlus
}

package testprovider

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/minty99/maistats/internal/domain/model"
	"github.com/minty99/maistats/internal/domain/types"
)

// Dataset is one synthetic player's records and the catalog behind them.
type Dataset struct {
	Catalog  []model.CatalogEntry
	Missing  []string // titles that appear in records but not in the catalog
	Scores   []model.ScoreRecord
	Playlogs []model.PlaylogRecord
	Versions model.VersionList
}

// Titles returns the distinct titles referenced by scores and playlogs.
func (d *Dataset) Titles() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, s := range d.Scores {
		add(s.Title)
	}
	for _, p := range d.Playlogs {
		add(p.Title)
	}
	return out
}

var titleWords = []string{"Oshama", "Scramble", "Garakuta", "Doll", "Play", "Pandora", "Paradoxxx", "Rebellion", "Tempestissimo", "QZKago", "Requiem", "BREaK", "Xaleid", "Scopiox", "Moon", "Strike", "系ぎて", "ツムギ", "響", "スターライト"}

var ranks = types.RankOrder

// Generate builds a dataset from cfg.
func Generate(cfg Config) *Dataset {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	ds := &Dataset{}

	versions := types.VersionOrder[len(types.VersionOrder)-6:]
	for i, v := range versions {
		ds.Versions.Versions = append(ds.Versions.Versions, model.Version{Index: i, Name: v})
	}

	for i := 0; i < cfg.Songs; i++ {
		title := fmt.Sprintf("%s %s %03d", titleWords[rng.IntN(len(titleWords))], titleWords[rng.IntN(len(titleWords))], i)
		version := versions[rng.IntN(len(versions))]
		idx := slices.IndexFunc(ds.Versions.Versions, func(v model.Version) bool { return v.Name == version })
		ds.Versions.Versions[idx].SongCount++

		entry := model.CatalogEntry{Title: title, ImageName: imageName(title)}
		chart := types.ChartTypes[rng.IntN(len(types.ChartTypes))]
		for d, diff := range types.Difficulties {
			if diff == types.DifficultyReMaster && rng.IntN(3) != 0 {
				continue
			}
			internal := 1.0 + float64(d)*3 + float64(rng.IntN(30))/10
			level := fmt.Sprintf("%d", int(internal))
			if internal-float64(int(internal)) >= 0.6 {
				level += "+"
			}
			v := version
			entry.Sheets = append(entry.Sheets, model.Sheet{
				ChartType:     chart,
				Difficulty:    diff,
				Level:         level,
				Version:       &v,
				InternalLevel: &internal,
			})
		}

		missing := cfg.UnresolvedEach > 0 && (i+1)%cfg.UnresolvedEach == 0
		if missing {
			ds.Missing = append(ds.Missing, title)
		} else {
			ds.Catalog = append(ds.Catalog, entry)
		}

		for _, sheet := range entry.Sheets {
			if rng.IntN(4) == 0 {
				continue
			}
			ds.Scores = append(ds.Scores, score(rng, cfg.Now, title, sheet))
		}
	}

	ds.Playlogs = playlogs(rng, cfg, ds.Scores)
	return ds
}

// imageName derives a stable cover identifier from a title.
func imageName(title string) *string {
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("maistats:"+title)).String() + ".png"
	return &name
}

func score(rng *rand.Rand, now time.Time, title string, sheet model.Sheet) model.ScoreRecord {
	ach := int64(700000 + rng.IntN(310001))
	dxMax := int64(3 * (300 + rng.IntN(700)))
	dx := dxMax * int64(80+rng.IntN(21)) / 100
	rank := rankFor(ach)
	rec := model.ScoreRecord{
		Title:             title,
		ChartType:         sheet.ChartType,
		Difficulty:        sheet.Difficulty,
		AchievementX10000: &ach,
		Rank:              &rank,
		DXScore:           &dx,
		DXScoreMax:        &dxMax,
	}
	if ach >= 1000000 {
		fc := types.FCOrder[rng.IntN(len(types.FCOrder))]
		rec.FC = &fc
	}
	if rng.IntN(3) == 0 {
		sync := types.SyncOrder[rng.IntN(len(types.SyncOrder))]
		rec.Sync = &sync
	}
	if rng.IntN(5) != 0 {
		played := now.Add(-time.Duration(rng.IntN(400*24)) * time.Hour).Format("2006/01/02 15:04")
		count := 1 + rng.IntN(40)
		rec.LastPlayedAt = &played
		rec.PlayCount = &count
	}
	return rec
}

func rankFor(ach int64) types.Rank {
	limits := []int64{1005000, 1000000, 995000, 990000, 980000, 970000, 940000, 900000, 800000, 750000, 700000, 600000, 500000}
	for i, l := range limits {
		if ach >= l {
			return ranks[i]
		}
	}
	return ranks[len(ranks)-1]
}

func playlogs(rng *rand.Rand, cfg Config, scores []model.ScoreRecord) []model.PlaylogRecord {
	if len(scores) == 0 {
		return nil
	}
	n := cfg.PlaysPerSong * cfg.Songs
	out := make([]model.PlaylogRecord, 0, n)
	ts := cfg.Now.Unix()
	for i := 0; i < n; i++ {
		s := scores[rng.IntN(len(scores))]
		ts -= int64(60 + rng.IntN(3600))
		track := i%4 + 1
		credit := i/4 + 1
		rec := model.PlaylogRecord{
			PlayedAtUnix:      ts,
			Track:             &track,
			Title:             s.Title,
			ChartType:         s.ChartType,
			AchievementX10000: s.AchievementX10000,
			Rank:              s.Rank,
			FC:                s.FC,
			Sync:              s.Sync,
			DXScore:           s.DXScore,
			DXScoreMax:        s.DXScoreMax,
			CreditPlayCount:   &credit,
		}
		if rng.IntN(10) != 0 {
			d := s.Difficulty
			rec.Difficulty = &d
		}
		if rng.IntN(6) == 0 {
			one := 1
			rec.AchievementNewRecord = &one
		}
		if rng.IntN(12) == 0 {
			one := 1
			rec.FirstPlay = &one
		}
		out = append(out, rec)
	}
	return out
}

package service_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/adapters/repository"
	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/internal/domain/types"
	"github.com/minty99/maistats/internal/testprovider"
	"github.com/minty99/maistats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fixture struct {
	ds   *testprovider.Dataset
	fake *testprovider.Server
	srv  *httptest.Server
}

func newFixture(cfg testprovider.Config, opts ...testprovider.Option) *fixture {
	ds := testprovider.Generate(cfg)
	fake := testprovider.NewServer(ds, opts...)
	return &fixture{ds: ds, fake: fake, srv: httptest.NewServer(fake.Handler())}
}

func (f *fixture) endpoints() service.Endpoints {
	return service.Endpoints{SongInfoURL: f.srv.URL, RecordCollectorURL: f.srv.URL}
}

func newSession(f *fixture, store repository.Store, opts ...service.Option) *service.Session {
	base := []service.Option{
		service.WithGateway(gateway.New()),
		service.WithStore(store),
		service.WithDefaultEndpoints(f.endpoints()),
		service.WithConcurrency(4),
	}
	return service.New(append(base, opts...)...)
}

// hookedStore runs beforeSet ahead of every write.
type hookedStore struct {
	repository.Store
	beforeSet func(key string)
}

func (h *hookedStore) Set(ctx context.Context, key, value string) error {
	h.beforeSet(key)
	return h.Store.Set(ctx, key, value)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSession_Refresh(t *testing.T) {
	Convey("Given providers with a partially resolvable catalog", t, func() {
		f := newFixture(testprovider.Config{Songs: 15, UnresolvedEach: 5})
		defer f.srv.Close()
		ctx := context.Background()

		s := newSession(f, repository.NewMemoryStore(nil))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("Then a new session is idle", func() {
			st := s.Status()
			So(st.State, ShouldEqual, service.StateIdle)
			So(st.Progress.Total, ShouldBeNil)
		})

		Convey("When refreshing", func() {
			err := s.Refresh(ctx)
			st := s.Status()

			Convey("Then the session is ready with every record built", func() {
				So(err, ShouldBeNil)
				So(st.State, ShouldEqual, service.StateReady)
				So(st.CycleID, ShouldNotBeEmpty)
				So(st.Error, ShouldBeEmpty)
				So(st.ScoreRows, ShouldEqual, len(f.ds.Scores))
				So(st.PlaylogRows, ShouldEqual, len(f.ds.Playlogs))
				So(st.UpdatedAt, ShouldNotBeNil)
			})

			Convey("Then progress reached the distinct title count", func() {
				So(st.Progress.Total, ShouldNotBeNil)
				So(*st.Progress.Total, ShouldEqual, len(f.ds.Titles()))
				So(st.Progress.Done, ShouldEqual, *st.Progress.Total)
			})

			Convey("Then rows of unresolved songs have no metadata", func() {
				missing := map[string]bool{}
				for _, t := range f.ds.Missing {
					missing[t] = true
				}
				res := s.QueryScores(query.DefaultScoreFilter(), s.ScoreSort())
				So(res.Rows, ShouldHaveLength, res.Total)
				for _, row := range res.Rows {
					if missing[row.Title] {
						So(row.InternalLevel, ShouldBeNil)
						So(row.Version, ShouldBeNil)
					} else {
						So(row.InternalLevel, ShouldNotBeNil)
					}
				}
			})

			Convey("Then version options follow the catalog", func() {
				So(s.VersionOptions(), ShouldResemble, types.VersionOrder[len(types.VersionOrder)-6:])
			})

			Convey("Then each song is looked up once", func() {
				for _, n := range f.fake.Lookups() {
					So(n, ShouldEqual, 1)
				}
			})
		})

		Convey("When a later refresh fails", func() {
			So(s.Refresh(ctx), ShouldBeNil)
			f.fake.FailScores(true)
			err := s.Refresh(ctx)
			st := s.Status()

			Convey("Then the error is surfaced and rows are cleared", func() {
				var apiErr *gateway.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Maintenance, ShouldBeTrue)
				So(st.State, ShouldEqual, service.StateFailed)
				So(st.Error, ShouldContainSubstring, "MAINTENANCE")
				So(st.ScoreRows, ShouldEqual, 0)
				So(st.PlaylogRows, ShouldEqual, 0)
				So(s.Options().Ranks, ShouldBeEmpty)
			})

			Convey("Then a retry recovers", func() {
				f.fake.FailScores(false)
				So(s.Refresh(ctx), ShouldBeNil)
				So(s.Status().State, ShouldEqual, service.StateReady)
				So(s.Status().Error, ShouldBeEmpty)
			})
		})

		Convey("When the player has no records", func() {
			f.fake.SetDataset(&testprovider.Dataset{})
			err := s.Refresh(ctx)

			Convey("Then the session is ready and empty", func() {
				So(err, ShouldBeNil)
				st := s.Status()
				So(st.State, ShouldEqual, service.StateReady)
				So(st.ScoreRows, ShouldEqual, 0)
				So(*st.Progress.Total, ShouldEqual, 0)
				So(f.fake.Hits("/api/songs/by-title/"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a song info service without a version catalog", t, func() {
		f := newFixture(testprovider.Config{Songs: 12}, testprovider.WithoutVersions())
		defer f.srv.Close()
		ctx := context.Background()
		s := newSession(f, repository.NewMemoryStore(nil))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("When refreshing", func() {
			err := s.Refresh(ctx)

			Convey("Then the refresh succeeds with versions taken from the rows", func() {
				So(err, ShouldBeNil)
				So(s.Status().State, ShouldEqual, service.StateReady)
				opts := s.VersionOptions()
				So(opts, ShouldNotBeEmpty)
				So(query.SortByOrder(opts, types.OrderIndex(types.VersionOrder)), ShouldResemble, opts)
				for _, v := range opts {
					So(v, ShouldNotBeEmpty)
				}
			})
		})
	})
}

func TestSession_Supersede(t *testing.T) {
	Convey("Given a refresh stuck on song lookups", t, func() {
		gate := make(chan struct{})
		slow := newFixture(testprovider.Config{Songs: 10, Seed: 1}, testprovider.WithSongGate(gate))
		defer slow.srv.Close()
		defer close(gate)
		fast := newFixture(testprovider.Config{Songs: 6, Seed: 2})
		defer fast.srv.Close()

		ctx := context.Background()
		store := repository.NewMemoryStore(nil)
		s := newSession(slow, store)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		first := s.StartRefresh()
		So(waitFor(func() bool { return slow.fake.PeakConcurrency() > 0 }), ShouldBeTrue)
		So(s.Status().State, ShouldEqual, service.StateLoading)

		Convey("When the endpoints change", func() {
			So(s.SetEndpoints(ctx, fast.endpoints()), ShouldBeNil)
			ready := waitFor(func() bool { return s.Status().State == service.StateReady })

			Convey("Then only the newer cycle becomes visible", func() {
				So(ready, ShouldBeTrue)
				st := s.Status()
				So(st.CycleID, ShouldNotEqual, first)
				So(st.Error, ShouldBeEmpty)
				So(st.ScoreRows, ShouldEqual, len(fast.ds.Scores))
				So(st.Endpoints.RecordCollectorURL, ShouldEqual, fast.srv.URL)
			})

			Convey("Then the new endpoints are stored", func() {
				v, err := store.Get(ctx, repository.KeyRecordURL)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, fast.srv.URL)
			})
		})

		Convey("When a synchronous refresh supersedes it", func() {
			done := make(chan error, 1)
			go func() { done <- s.Refresh(ctx) }()
			So(waitFor(func() bool { return s.Status().CycleID != first }), ShouldBeTrue)
			s.Stop()

			Convey("Then the cancelled refresh raises nothing", func() {
				var err error
				select {
				case err = <-done:
				case <-time.After(3 * time.Second):
					err = errors.New("refresh did not return")
				}
				So(err, ShouldBeNil)
				So(s.Status().Error, ShouldBeEmpty)
				So(s.Status().State, ShouldNotEqual, service.StateFailed)
			})
		})
	})
}

func TestSession_Preferences(t *testing.T) {
	Convey("Given a store holding a stale version selection", t, func() {
		f := newFixture(testprovider.Config{Songs: 8})
		defer f.srv.Close()
		ctx := context.Background()
		store := repository.NewMemoryStore(map[string]string{
			repository.KeyScoreFilters:   `{"versionSelection":"maimai でらっくす UNKNOWN","chartFilter":["DX"],"includeNoAchievement":"yes"}`,
			repository.KeyPlaylogFilters: `not json`,
		})
		s := newSession(f, store)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("Then stored filters are decoded field by field", func() {
			sf := s.ScoreFilter()
			So(sf.Charts, ShouldResemble, []types.ChartType{types.ChartDX})
			So(sf.IncludeNoAchievement, ShouldBeTrue)
			So(s.PlaylogFilter(), ShouldResemble, query.DefaultPlaylogFilter())
		})

		Convey("When a refresh completes", func() {
			So(s.Refresh(ctx), ShouldBeNil)

			Convey("Then the unknown version resets to ALL and is stored", func() {
				So(s.ScoreFilter().VersionSelection, ShouldEqual, query.VersionAll)
				raw, err := store.Get(ctx, repository.KeyScoreFilters)
				So(err, ShouldBeNil)
				So(query.DecodeScoreFilter([]byte(raw)).VersionSelection, ShouldEqual, query.VersionAll)
			})
		})

		Convey("When the filter is replaced", func() {
			pf := query.DefaultPlaylogFilter()
			pf.NewRecordOnly = true
			pf.Query = "oshama"
			s.SetPlaylogFilter(ctx, pf)

			Convey("Then a new session on the same store sees it without the text query", func() {
				other := newSession(f, store)
				So(other.Start(ctx), ShouldBeNil)
				defer other.Stop()
				got := other.PlaylogFilter()
				So(got.NewRecordOnly, ShouldBeTrue)
				So(got.Query, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a refresh whose own context is already cancelled", t, func() {
		f := newFixture(testprovider.Config{Songs: 4})
		defer f.srv.Close()
		s := newSession(f, repository.NewMemoryStore(nil))
		So(s.Start(context.Background()), ShouldBeNil)
		defer s.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then it returns nil and the state stays loading without an error", func() {
			So(s.Refresh(ctx), ShouldBeNil)
			st := s.Status()
			So(st.State, ShouldEqual, service.StateLoading)
			So(st.Error, ShouldBeEmpty)
		})
	})

	Convey("Given a SQLite store whose refresh is cancelled right after ready", t, func() {
		f := newFixture(testprovider.Config{Songs: 8})
		defer f.srv.Close()
		ctx := context.Background()

		db, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "prefs.db"))
		So(err, ShouldBeNil)
		defer db.Close()
		So(db.Set(ctx, repository.KeyScoreFilters, `{"versionSelection":"GONE"}`), ShouldBeNil)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		store := &hookedStore{Store: db, beforeSet: func(key string) {
			if key == repository.KeyScoreFilters {
				cancel()
			}
		}}
		s := newSession(f, store)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		So(s.Refresh(runCtx), ShouldBeNil)

		Convey("Then the version reset is still written", func() {
			raw, err := db.Get(ctx, repository.KeyScoreFilters)
			So(err, ShouldBeNil)
			So(query.DecodeScoreFilter([]byte(raw)).VersionSelection, ShouldEqual, query.VersionAll)
		})
	})

	Convey("Given stored endpoints", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(map[string]string{
			repository.KeySongInfoURL: " http://songs.example/ ",
		})
		s := service.New(service.WithStore(store), service.WithDefaultEndpoints(service.Endpoints{
			SongInfoURL:        "http://default-songs",
			RecordCollectorURL: "http://default-records",
		}))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		Convey("Then they override the defaults", func() {
			ep := s.Endpoints()
			So(ep.SongInfoURL, ShouldEqual, "http://songs.example")
			So(ep.RecordCollectorURL, ShouldEqual, "http://default-records")
		})

		Convey("Then empty endpoints are rejected", func() {
			err := s.SetEndpoints(ctx, service.Endpoints{SongInfoURL: " "})
			So(errors.Is(err, service.ErrInvalidEndpoint), ShouldBeTrue)
		})
	})
}

func TestSession_Sort(t *testing.T) {
	Convey("Given a new session", t, func() {
		s := service.New()

		Convey("Then the default sorts are newest first", func() {
			So(s.ScoreSort(), ShouldResemble, query.DefaultScoreSort())
			So(s.PlaylogSort(), ShouldResemble, query.DefaultPlaylogSort())
		})

		Convey("When toggling the score sort", func() {
			title := s.ToggleScoreSort(query.ScoreSortTitle)
			flipped := s.ToggleScoreSort(query.ScoreSortTitle)
			rating := s.ToggleScoreSort(query.ScoreSortRating)

			Convey("Then title starts ascending and other keys descending", func() {
				So(title.Desc, ShouldBeFalse)
				So(flipped.Desc, ShouldBeTrue)
				So(rating, ShouldResemble, query.SortSpec[query.ScoreSortKey]{Key: query.ScoreSortRating, Desc: true})
			})
		})

		Convey("When toggling the playlog sort on its active key", func() {
			spec := s.TogglePlaylogSort(query.PlaylogSortPlayedAt)

			Convey("Then the direction flips", func() {
				So(spec.Desc, ShouldBeFalse)
			})
		})
	})
}

func TestSession_Schedule(t *testing.T) {
	Convey("Given an invalid refresh schedule", t, func() {
		s := service.New(service.WithSchedule("every now and then"))

		Convey("Then Start fails", func() {
			err := s.Start(context.Background())
			So(errors.Is(err, service.ErrInvalidSchedule), ShouldBeTrue)
		})
	})

	Convey("Given a frequent refresh schedule", t, func() {
		f := newFixture(testprovider.Config{Songs: 4})
		defer f.srv.Close()
		s := newSession(f, nil, service.WithSchedule("@every 1s"))
		So(s.Start(context.Background()), ShouldBeNil)
		defer s.Stop()

		Convey("Then a refresh runs without being requested", func() {
			So(waitFor(func() bool { return s.Status().State == service.StateReady }), ShouldBeTrue)
		})
	})
}

func TestSession_Detail(t *testing.T) {
	Convey("Given a ready session", t, func() {
		f := newFixture(testprovider.Config{Songs: 5})
		defer f.srv.Close()
		ctx := context.Background()
		s := newSession(f, nil)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()
		title := f.ds.Scores[0].Title

		Convey("When opening the detail of a played song", func() {
			d, err := s.OpenDetail(ctx, title)

			Convey("Then every chart record of the song is returned", func() {
				So(err, ShouldBeNil)
				So(d.LookupID, ShouldNotBeEmpty)
				So(d.Loading, ShouldBeFalse)
				So(d.Rows, ShouldNotBeEmpty)
				for _, r := range d.Rows {
					So(r.Title, ShouldEqual, title)
				}
				So(s.Detail().Title, ShouldEqual, title)
			})

			Convey("Then closing clears it", func() {
				s.CloseDetail()
				So(s.Detail(), ShouldResemble, service.Detail{})
			})
		})

		Convey("When the detail lookup fails", func() {
			f.fake.FailDetails(true)
			d, err := s.OpenDetail(ctx, title)

			Convey("Then only the detail carries the error", func() {
				So(err, ShouldNotBeNil)
				So(d.Error, ShouldContainSubstring, "detail lookup failed")
				So(s.Status().Error, ShouldBeEmpty)
			})
		})

		Convey("When the caller goes away before the lookup finishes", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.OpenDetail(cancelled, title)

			Convey("Then the lookup is superseded and leaves no state", func() {
				So(service.IsSuperseded(err), ShouldBeTrue)
				So(s.Detail(), ShouldResemble, service.Detail{})
			})
		})
	})
}

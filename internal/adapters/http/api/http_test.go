package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/minty99/maistats/internal/adapters/gateway"
	"github.com/minty99/maistats/internal/adapters/http/api"
	"github.com/minty99/maistats/internal/adapters/repository"
	service "github.com/minty99/maistats/internal/app"
	"github.com/minty99/maistats/internal/domain/query"
	"github.com/minty99/maistats/internal/testprovider"
	"github.com/minty99/maistats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type harness struct {
	ds       *testprovider.Dataset
	fake     *testprovider.Server
	upstream *httptest.Server
	session  *service.Session
	store    *repository.MemoryStore
	mux      *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ds := testprovider.Generate(testprovider.Config{Songs: 20, PlaysPerSong: 2, UnresolvedEach: 7})
	fake := testprovider.NewServer(ds)
	upstream := httptest.NewServer(fake.Handler())
	store := repository.NewMemoryStore(nil)
	s := service.New(
		service.WithGateway(gateway.New()),
		service.WithStore(store),
		service.WithDefaultEndpoints(service.Endpoints{SongInfoURL: upstream.URL, RecordCollectorURL: upstream.URL}),
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(s).Register(context.Background(), mux)
	return &harness{ds: ds, fake: fake, upstream: upstream, session: s, store: store, mux: mux}
}

func (h *harness) close() {
	h.session.Stop()
	h.upstream.Close()
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

type page struct {
	Rows  []map[string]any `json:"rows"`
	Count int              `json:"count"`
	Total int              `json:"total"`
	Label string           `json:"label"`
	Sort  struct {
		Key  string `json:"key"`
		Desc bool   `json:"desc"`
	} `json:"sort"`
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestScores(t *testing.T) {
	Convey("Given a ready session behind the API", t, func() {
		h := newHarness(t)
		defer h.close()

		Convey("When listing scores with the stored filter", func() {
			w := h.do("GET", "/scores", "")

			Convey("Then every row is returned newest first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				p := decode[page](w)
				So(p.Total, ShouldEqual, len(h.ds.Scores))
				So(p.Count, ShouldEqual, p.Total)
				So(p.Rows, ShouldHaveLength, p.Total)
				So(p.Sort.Key, ShouldEqual, "lastPlayed")
				So(p.Sort.Desc, ShouldBeTrue)
			})

			Convey("Then resolved rows link their cover", func() {
				p := decode[page](w)
				linked := 0
				for _, row := range p.Rows {
					if u, ok := row["cover_url"].(string); ok {
						So(u, ShouldStartWith, h.upstream.URL+"/api/cover/")
						linked++
					}
				}
				So(linked, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When filtering by chart type and paging", func() {
			w := h.do("GET", "/scores?chart=DX&sort=title&limit=3", "")

			Convey("Then only DX rows come back ascending by title", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				p := decode[page](w)
				So(len(p.Rows), ShouldBeLessThanOrEqualTo, 3)
				So(p.Label, ShouldEndWith, "/"+strconv.Itoa(len(h.ds.Scores)))
				So(p.Sort.Key, ShouldEqual, "title")
				So(p.Sort.Desc, ShouldBeFalse)
				for _, row := range p.Rows {
					So(row["chart_type"], ShouldEqual, "DX")
				}
			})
		})

		Convey("When searching by title text", func() {
			title := h.ds.Scores[0].Title
			w := h.do("GET", "/scores?q="+url.QueryEscape(strings.ToUpper(title)), "")

			Convey("Then matching rows are found case-insensitively", func() {
				p := decode[page](w)
				So(p.Count, ShouldBeGreaterThan, 0)
				for _, row := range p.Rows {
					So(strings.ToLower(row["title"].(string)), ShouldContainSubstring, strings.ToLower(title))
				}
			})
		})

		Convey("When a parameter is invalid", func() {
			cases := []string{
				"/scores?chart=XX",
				"/scores?rank=Z",
				"/scores?version=unknown-version",
				"/scores?achievement_min=NaN",
				"/scores?sort=bogus",
				"/scores?limit=-1",
				"/scores?include_never_played=maybe",
			}

			Convey("Then the API answers 400", func() {
				for _, target := range cases {
					w := h.do("GET", target, "")
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decode[map[string]string](w)["code"], ShouldEqual, "bad_request")
				}
			})
		})

		Convey("When toggling the score sort", func() {
			first := h.do("POST", "/scores/sort?key=rating", "")
			second := h.do("POST", "/scores/sort?key=rating", "")
			bad := h.do("POST", "/scores/sort?key=nope", "")

			Convey("Then the direction flips on the same key", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(decode[query.SortSpec[query.ScoreSortKey]](first).Desc, ShouldBeTrue)
				So(decode[query.SortSpec[query.ScoreSortKey]](second).Desc, ShouldBeFalse)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(h.session.ScoreSort().Key, ShouldEqual, query.ScoreSortRating)
			})
		})

		Convey("When reading options", func() {
			w := h.do("GET", "/options", "")

			Convey("Then only present values are offered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				opts := decode[map[string]any](w)
				So(opts["ranks"], ShouldNotBeEmpty)
				So(opts["versions"], ShouldNotBeEmpty)
				So(opts["version_selection"], ShouldEqual, query.VersionAll)
			})
		})
	})
}

func TestPlaylogs(t *testing.T) {
	Convey("Given a ready session behind the API", t, func() {
		h := newHarness(t)
		defer h.close()

		Convey("When listing playlogs", func() {
			w := h.do("GET", "/playlogs?limit=5", "")

			Convey("Then the newest plays come first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				p := decode[page](w)
				So(p.Total, ShouldEqual, len(h.ds.Playlogs))
				So(p.Rows, ShouldHaveLength, 5)
				for i := 1; i < len(p.Rows); i++ {
					So(p.Rows[i]["played_at_unix"], ShouldBeLessThanOrEqualTo, p.Rows[i-1]["played_at_unix"])
				}
			})
		})

		Convey("When asking for new records only", func() {
			w := h.do("GET", "/playlogs?new_record_only=true", "")

			Convey("Then every row is a new record", func() {
				p := decode[page](w)
				for _, row := range p.Rows {
					So(row["is_new_record"], ShouldEqual, true)
				}
			})
		})
	})
}

func TestFilters(t *testing.T) {
	Convey("Given a ready session behind the API", t, func() {
		h := newHarness(t)
		defer h.close()

		Convey("When storing a partly malformed score filter", func() {
			w := h.do("PUT", "/filters/scores", `{"chartFilter":["DX","??"],"versionFilter":["NEW"],"daysMax":"soon","rankFilter":["A"]}`)

			Convey("Then each field is decoded on its own", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				f := h.session.ScoreFilter()
				So(f.VersionSelection, ShouldEqual, query.VersionNew)
				So(f.DaysMax, ShouldEqual, float64(query.DefaultDaysMax))
				So(len(f.Ranks), ShouldBeGreaterThan, 1)
			})

			Convey("Then the blob is persisted", func() {
				raw, err := h.store.Get(context.Background(), repository.KeyScoreFilters)
				So(err, ShouldBeNil)
				So(raw, ShouldContainSubstring, `"versionSelection":"NEW"`)
			})

			Convey("Then later listings use it", func() {
				p := decode[page](h.do("GET", "/scores", ""))
				for _, row := range p.Rows {
					So(row["chart_type"], ShouldEqual, "DX")
				}
			})
		})

		Convey("When toggling the grouped rank token twice", func() {
			on := h.do("POST", "/filters/scores/rank?token="+url.QueryEscape("~AAA"), "")
			withGroup := h.session.ScoreFilter().Ranks
			off := h.do("POST", "/filters/scores/rank?token="+url.QueryEscape("~AAA"), "")

			Convey("Then the whole group is added then removed", func() {
				So(on.Code, ShouldEqual, http.StatusOK)
				So(off.Code, ShouldEqual, http.StatusOK)
				So(len(withGroup), ShouldBeGreaterThanOrEqualTo, 8)
				So(h.session.ScoreFilter().Ranks, ShouldBeEmpty)
			})
		})

		Convey("When storing a playlog filter that is not JSON", func() {
			w := h.do("PUT", "/filters/playlogs", `garbage`)

			Convey("Then defaults are stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(h.session.PlaylogFilter(), ShouldResemble, query.DefaultPlaylogFilter())
			})
		})
	})
}

func TestStatusAndEndpoints(t *testing.T) {
	Convey("Given a ready session behind the API", t, func() {
		h := newHarness(t)
		defer h.close()

		Convey("Then status reports the row counts", func() {
			st := decode[service.Status](h.do("GET", "/status", ""))
			So(st.State, ShouldEqual, service.StateReady)
			So(st.ScoreRows, ShouldEqual, len(h.ds.Scores))
		})

		Convey("Then a refresh can be started", func() {
			w := h.do("POST", "/refresh", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(decode[map[string]string](w)["cycle_id"], ShouldNotBeEmpty)
		})

		Convey("When clearing an endpoint", func() {
			w := h.do("PUT", "/endpoints", `{"song_info_url":"  "}`)

			Convey("Then the change is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(h.session.Endpoints().SongInfoURL, ShouldEqual, h.upstream.URL)
			})
		})

		Convey("When moving the record collector", func() {
			w := h.do("PUT", "/endpoints", `{"record_collector_url":"`+h.upstream.URL+`/"}`)

			Convey("Then the normalized URL is stored", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				raw, err := h.store.Get(context.Background(), repository.KeyRecordURL)
				So(err, ShouldBeNil)
				So(raw, ShouldEqual, h.upstream.URL)
			})
		})

		Convey("Then metrics are exposed", func() {
			h.do("GET", "/status", "")
			w := h.do("GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "maistats_")
		})
	})
}

func TestDetail(t *testing.T) {
	Convey("Given a ready session behind the API", t, func() {
		h := newHarness(t)
		defer h.close()

		Convey("When opening a played song", func() {
			title := h.ds.Scores[0].Title
			w := h.do("GET", "/songs/"+url.PathEscape(title)+"/detail", "")

			Convey("Then its chart records are returned and kept", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				d := decode[service.Detail](w)
				So(d.Title, ShouldEqual, title)
				So(d.Rows, ShouldNotBeEmpty)
				So(decode[service.Detail](h.do("GET", "/songs/detail", "")).LookupID, ShouldEqual, d.LookupID)
			})

			Convey("Then closing clears it", func() {
				So(h.do("DELETE", "/songs/detail", "").Code, ShouldEqual, http.StatusNoContent)
				So(decode[service.Detail](h.do("GET", "/songs/detail", "")).Title, ShouldBeEmpty)
			})
		})

		Convey("When opening a song without records", func() {
			w := h.do("GET", "/songs/"+url.PathEscape("never played")+"/detail", "")

			Convey("Then the API answers 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the record collector fails", func() {
			h.fake.FailDetails(true)
			w := h.do("GET", "/songs/"+url.PathEscape(h.ds.Scores[0].Title)+"/detail", "")

			Convey("Then the API answers 502", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decode[map[string]string](w)["message"], ShouldContainSubstring, "HTTP 500")
			})
		})
	})
}

package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/minty99/maistats/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func() repository.Store{
		"memory": func() repository.Store { return repository.NewMemoryStore(nil) },
		"sqlite": func() repository.Store {
			s, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "nested", "prefs.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
	}

	for name, open := range stores {
		Convey("Given an empty "+name+" store", t, func() {
			s := open()
			defer s.Close()

			Convey("When reading a missing key", func() {
				_, err := s.Get(ctx, repository.KeyRecordURL)

				Convey("Then ErrNotFound is returned", func() {
					So(err, ShouldEqual, repository.ErrNotFound)
					So(repository.GetOr(ctx, s, repository.KeyRecordURL, "http://localhost:3000"), ShouldEqual, "http://localhost:3000")
				})
			})

			Convey("When a value is written twice", func() {
				So(s.Set(ctx, repository.KeyScoreFilters, `{"chartFilter":["DX"]}`), ShouldBeNil)
				So(s.Set(ctx, repository.KeyScoreFilters, `{"chartFilter":["STD"]}`), ShouldBeNil)

				Convey("Then the last value wins", func() {
					v, err := s.Get(ctx, repository.KeyScoreFilters)
					So(err, ShouldBeNil)
					So(v, ShouldEqual, `{"chartFilter":["STD"]}`)
				})
			})

			Convey("When an empty value is stored", func() {
				So(s.Set(ctx, repository.KeySongInfoURL, ""), ShouldBeNil)

				Convey("Then GetOr falls back", func() {
					So(repository.GetOr(ctx, s, repository.KeySongInfoURL, "fallback"), ShouldEqual, "fallback")
				})
			})

			Convey("When writing an empty key", func() {
				err := s.Set(ctx, "", "x")

				Convey("Then it is rejected", func() {
					So(err, ShouldEqual, repository.ErrEmptyKey)
				})
			})
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQLite store on disk", t, func() {
		path := filepath.Join(t.TempDir(), "prefs.db")
		stamp := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		s, err := repository.OpenSQLite(ctx, path, repository.WithClock(func() time.Time { return stamp }))
		So(err, ShouldBeNil)
		So(s.Set(ctx, repository.KeyRecordURL, "http://records.local"), ShouldBeNil)

		Convey("Then the write time is recorded", func() {
			at, err := s.UpdatedAt(ctx, repository.KeyRecordURL)
			So(err, ShouldBeNil)
			So(at.Equal(stamp), ShouldBeTrue)
			So(s.Close(), ShouldBeNil)
		})

		Convey("When the database is reopened", func() {
			So(s.Close(), ShouldBeNil)
			reopened, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then the value survives", func() {
				v, err := reopened.Get(ctx, repository.KeyRecordURL)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "http://records.local")
			})
		})
	})
}

func TestMemoryStoreClose(t *testing.T) {
	Convey("Given a closed memory store", t, func() {
		s := repository.NewMemoryStore(map[string]string{repository.KeyRecordURL: "x"})
		So(s.Close(), ShouldBeNil)

		Convey("Then reads and writes fail", func() {
			_, err := s.Get(context.Background(), repository.KeyRecordURL)
			So(err, ShouldEqual, repository.ErrStoreClose)
			So(s.Set(context.Background(), "k", "v"), ShouldEqual, repository.ErrStoreClose)
		})
	})
}

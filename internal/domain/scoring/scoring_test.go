package scoring_test

import (
	"math"
	"testing"

	"github.com/minty99/maistats/internal/domain/scoring"
	"github.com/minty99/maistats/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func fc(s types.FCStatus) *types.FCStatus { return &s }

func f(v float64) *float64 { return &v }

func TestPoints(t *testing.T) {
	Convey("Given a level 14.0 chart", t, func() {
		Convey("When achievement is 100.0000% without a full combo", func() {
			So(scoring.Points(14.0, 100.0, nil), ShouldEqual, 302)
		})

		Convey("When achievement is 100.0000% with AP", func() {
			So(scoring.Points(14.0, 100.0, fc(types.FCAllPerfect)), ShouldEqual, 303)
			So(scoring.Points(14.0, 100.0, fc(types.FCAllPerfectPlus)), ShouldEqual, 303)
		})

		Convey("When the full combo is not an all perfect", func() {
			So(scoring.Points(14.0, 100.0, fc(types.FCFullComboPlus)), ShouldEqual, 302)
		})

		Convey("When achievement is 50.0%", func() {
			So(scoring.Points(14.0, 50.0, nil), ShouldEqual, 56)
		})

		Convey("When achievement exceeds the cap", func() {
			So(scoring.Points(14.0, 101.0, nil), ShouldEqual, scoring.Points(14.0, 100.5, nil))
			So(scoring.Points(14.0, 100.5, nil), ShouldEqual, 315)
		})

		Convey("When achievement is below 10%", func() {
			So(scoring.Points(14.0, 9.9, nil), ShouldEqual, 0)
			So(scoring.Points(14.0, 9.9, fc(types.FCAllPerfect)), ShouldEqual, 1)
		})
	})

	Convey("Given non-finite inputs", t, func() {
		So(scoring.Points(math.NaN(), 100.0, nil), ShouldEqual, 0)
		So(scoring.Points(math.Inf(1), 100.0, nil), ShouldEqual, 0)
		So(scoring.Points(-3, 100.0, nil), ShouldEqual, 0)
	})
}

func TestCoefficient(t *testing.T) {
	Convey("Breakpoints are inclusive lower bounds", t, func() {
		So(scoring.Coefficient(100.5), ShouldEqual, 22.4)
		So(scoring.Coefficient(100.4999), ShouldEqual, 22.2)
		So(scoring.Coefficient(99.9999), ShouldEqual, 21.4)
		So(scoring.Coefficient(98.99995), ShouldEqual, 20.6)
		So(scoring.Coefficient(96.9999), ShouldEqual, 17.6)
		So(scoring.Coefficient(79.9999), ShouldEqual, 12.8)
		So(scoring.Coefficient(10.0), ShouldEqual, 1.6)
		So(scoring.Coefficient(0), ShouldEqual, 0)
	})
}

func TestRating(t *testing.T) {
	Convey("Given a precomputed value", t, func() {
		pre := 280
		r := scoring.Rating(&pre, f(14.0), f(100.0), nil)
		So(r, ShouldNotBeNil)
		So(*r, ShouldEqual, 280)
	})

	Convey("Given missing inputs", t, func() {
		So(scoring.Rating(nil, nil, f(100.0), nil), ShouldBeNil)
		So(scoring.Rating(nil, f(14.0), nil, nil), ShouldBeNil)
	})

	Convey("Given both inputs", t, func() {
		r := scoring.Rating(nil, f(14.0), f(100.0), fc(types.FCAllPerfect))
		So(r, ShouldNotBeNil)
		So(*r, ShouldEqual, 303)
	})
}

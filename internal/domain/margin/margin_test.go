package margin_test

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/okian/pylon/internal/domain/margin"
	"github.com/okian/pylon/internal/domain/model"
	"github.com/okian/pylon/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

const tolerance = 1e-6

func TestFullGameMultiplierGoldenValues(t *testing.T) {
	Convey("Given a calculator with default curve parameters", t, func() {
		calc := margin.NewCalculator(margin.NewDetector())

		Convey("Then a tie produces the floor multiplier", func() {
			So(calc.FullGame(21, 21), ShouldAlmostEqual, 1.0, tolerance)
		})

		Convey("And known differentials are pinned", func() {
			// min(2.5, 1 + 0.35*ln(1+|diff|))
			So(calc.FullGame(33, 27), ShouldAlmostEqual, 1.681069, 1e-5) // diff 6
			So(calc.FullGame(28, 7), ShouldAlmostEqual, 2.081865, 1e-5)  // diff 21
			So(calc.FullGame(42, 7), ShouldAlmostEqual, 2.254232, 1e-5)  // diff 35
			So(calc.FullGame(7, 42), ShouldAlmostEqual, 2.254232, 1e-5)  // symmetric in sign
		})

		Convey("And the multiplier is capped at 2.5", func() {
			So(calc.FullGame(107, 7), ShouldAlmostEqual, 2.5, tolerance)
		})

		Convey("And the curve stays within its documented bounds", func() {
			for diff := 0; diff <= 120; diff += 3 {
				m := calc.FullGame(diff, 0)
				So(m, ShouldBeGreaterThanOrEqualTo, 1.0)
				So(m, ShouldBeLessThanOrEqualTo, 2.5)
			}
		})
	})
}

func TestQuarterWeightedMultiplier(t *testing.T) {
	Convey("Given a calculator with default curve parameters", t, func() {
		calc := margin.NewCalculator(margin.NewDetector())

		Convey("When Q4 is weighted fully", func() {
			q := model.QuarterLine{Home: [4]int{14, 7, 14, 14}, Away: [4]int{0, 0, 0, 7}}

			Convey("Then it matches the full-game multiplier on the same final", func() {
				So(calc.QuarterWeighted(q, false), ShouldAlmostEqual, calc.FullGame(49, 7), tolerance)
			})
		})

		Convey("When the leader pads the margin in garbage time", func() {
			// 35-0 through three quarters, 14-7 fourth quarter, final 49-7.
			q := model.QuarterLine{Home: [4]int{14, 7, 14, 14}, Away: [4]int{0, 0, 0, 7}}
			weighted := calc.QuarterWeighted(q, true)

			Convey("Then the discounted multiplier is strictly below the full-game one", func() {
				So(weighted, ShouldBeLessThan, calc.FullGame(49, 7))
			})

			Convey("And the effective differential is 35 + 0.25*7", func() {
				expected := math.Min(2.5, 1+0.35*math.Log1p(36.75))
				So(weighted, ShouldAlmostEqual, expected, tolerance)
			})
		})

		Convey("When the fourth quarter is a wash", func() {
			// 35-0 through three, both score a touchdown in the fourth: 42-7.
			q := model.QuarterLine{Home: [4]int{14, 7, 14, 7}, Away: [4]int{0, 0, 0, 7}}

			Convey("Then discounting changes nothing; the margin entering Q4 stands", func() {
				So(calc.QuarterWeighted(q, true), ShouldAlmostEqual, calc.FullGame(42, 7), tolerance)
			})
		})
	})
}

func TestForGameSelectionRule(t *testing.T) {
	Convey("Given a calculator and a completed game", t, func() {
		ctx := context.Background()
		calc := margin.NewCalculator(margin.NewDetector())

		Convey("When the game has no quarter data", func() {
			g := &model.Game{ID: "g1", HomeScore: 31, AwayScore: 17}
			res := calc.ForGame(ctx, g)

			Convey("Then it silently falls back to the full-game path", func() {
				So(res.QuarterWeighted, ShouldBeFalse)
				So(res.GarbageTime, ShouldBeFalse)
				So(res.Multiplier, ShouldAlmostEqual, calc.FullGame(31, 17), tolerance)
			})
		})

		Convey("When quarter scores do not sum to the final", func() {
			g := &model.Game{
				ID:        "g2",
				HomeScore: 31,
				AwayScore: 17,
				Quarters:  &model.QuarterLine{Home: [4]int{7, 7, 7, 7}, Away: [4]int{7, 3, 0, 7}},
			}
			res := calc.ForGame(ctx, g)

			Convey("Then the inconsistency degrades to the full-game path", func() {
				So(res.QuarterWeighted, ShouldBeFalse)
				So(res.Multiplier, ShouldAlmostEqual, calc.FullGame(31, 17), tolerance)
			})
		})

		Convey("When consistent quarter data shows a blowout entering Q4", func() {
			g := &model.Game{
				ID:        "g3",
				HomeScore: 49,
				AwayScore: 7,
				Quarters:  &model.QuarterLine{Home: [4]int{14, 7, 14, 14}, Away: [4]int{0, 0, 0, 7}},
			}
			res := calc.ForGame(ctx, g)

			Convey("Then the quarter-weighted path runs with garbage time detected", func() {
				So(res.QuarterWeighted, ShouldBeTrue)
				So(res.GarbageTime, ShouldBeTrue)
				So(res.Multiplier, ShouldBeLessThan, calc.FullGame(49, 7))
			})
		})

		Convey("When consistent quarter data shows a close game", func() {
			g := &model.Game{
				ID:        "g4",
				HomeScore: 28,
				AwayScore: 24,
				Quarters:  &model.QuarterLine{Home: [4]int{7, 7, 7, 7}, Away: [4]int{7, 7, 3, 7}},
			}
			res := calc.ForGame(ctx, g)

			Convey("Then the quarter-weighted path runs at full Q4 weight", func() {
				So(res.QuarterWeighted, ShouldBeTrue)
				So(res.GarbageTime, ShouldBeFalse)
				So(res.Multiplier, ShouldAlmostEqual, calc.FullGame(28, 24), tolerance)
			})
		})
	})
}

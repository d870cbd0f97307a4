package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/okian/pylon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.GameQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 150)
		})

		convey.Convey("Then the rating parameters match the calibrated model", func() {
			convey.So(cfg.KFactor, convey.ShouldEqual, 32)
			convey.So(cfg.HomeAdvantage, convey.ShouldEqual, 65)
			convey.So(cfg.BaseRating, convey.ShouldEqual, 1500)
			convey.So(cfg.GarbageTimeThreshold, convey.ShouldEqual, 21)
			convey.So(cfg.GarbageQ4Weight, convey.ShouldEqual, 0.25)
			convey.So(cfg.MOVCap, convey.ShouldEqual, 2.5)
			convey.So(cfg.BaseScore, convey.ShouldEqual, 30)
			convey.So(cfg.ScoreVariance, convey.ShouldEqual, 3.5)
		})
	})
}

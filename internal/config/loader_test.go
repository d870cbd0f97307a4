package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pylon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"PYLON_CONFIG",
		"PYLON_ADDR",
		"PYLON_QUEUE_SIZE",
		"PYLON_WORKER_COUNT",
		"PYLON_K_FACTOR",
		"PYLON_HOME_ADVANTAGE",
		"PYLON_GARBAGE_TIME_THRESHOLD",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.KFactor, convey.ShouldEqual, 32)
				convey.So(cfg.HomeAdvantage, convey.ShouldEqual, 65)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PYLON_ADDR", ":8080")
			_ = os.Setenv("PYLON_QUEUE_SIZE", "5000")
			_ = os.Setenv("PYLON_WORKER_COUNT", "16")
			_ = os.Setenv("PYLON_K_FACTOR", "24")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.GameQueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.KFactor, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 2500
home_advantage: 50
garbage_time_threshold: 28
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("PYLON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.GameQueueSize, convey.ShouldEqual, 2500)
				convey.So(cfg.HomeAdvantage, convey.ShouldEqual, 50)
				convey.So(cfg.GarbageTimeThreshold, convey.ShouldEqual, 28)
			})
		})

		convey.Convey("When file and env disagree", func() {
			yamlContent := `
addr: ":9090"
worker_count: 8
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("PYLON_CONFIG", tmpFile)
			_ = os.Setenv("PYLON_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env takes precedence over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("PYLON_K_FACTOR", "-1")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

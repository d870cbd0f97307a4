// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GameQueueSize bounds the in-memory queue of completed games.
	GameQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of game-processing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the game-ID deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the rating store.
	ShardCount int `koanf:"shard_count"`

	// MaxRankingLimit caps GET /rankings?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// KFactor scales every rating adjustment.
	KFactor float64 `koanf:"k_factor"`

	// HomeAdvantage is the rating bonus for the home side in points.
	HomeAdvantage float64 `koanf:"home_advantage"`

	// BaseRating seeds teams that have no rating history yet.
	BaseRating float64 `koanf:"base_rating"`

	// GarbageTimeThreshold is the lead after three quarters beyond which
	// the fourth quarter is discounted.
	GarbageTimeThreshold int `koanf:"garbage_time_threshold"`

	// GarbageQ4Weight is the fourth-quarter weight during garbage time.
	GarbageQ4Weight float64 `koanf:"garbage_q4_weight"`

	// MOVScale and MOVCap shape the margin-of-victory multiplier curve.
	MOVScale float64 `koanf:"mov_scale"`
	MOVCap   float64 `koanf:"mov_cap"`

	// BaseScore and ScoreVariance drive the predicted-score heuristic.
	BaseScore     float64 `koanf:"base_score"`
	ScoreVariance float64 `koanf:"score_variance"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		GameQueueSize:        10_000,
		WorkerCount:          runtime.NumCPU() * 4,
		DedupeSize:           50_000,
		ShardCount:           8,
		MaxRankingLimit:      150,
		KFactor:              32,
		HomeAdvantage:        65,
		BaseRating:           1500,
		GarbageTimeThreshold: 21,
		GarbageQ4Weight:      0.25,
		MOVScale:             0.35,
		MOVCap:               2.5,
		BaseScore:            30,
		ScoreVariance:        3.5,
	}
	return c
}

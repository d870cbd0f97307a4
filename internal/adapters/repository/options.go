// Package repository defines the engine-side state stores and their errors.
package repository

// Option applies a configuration option to the MapStore.
type Option func(*MapStore)

// WithShardCount sets the number of shards in the rating store.
func WithShardCount(count int) Option {
	return func(s *MapStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// Package cache models only the narrow metrics shape Metrics consumes from
// the block/table cache. The cache itself (eviction policy, sharding,
// memory accounting) is out of scope per spec.md §1 — the flush engine
// never reads from or writes to it, it only surfaces cache metrics
// alongside its own in the DB-wide Metrics struct.
package cache

// Metrics holds cache hit/miss/size counters, mirroring the shape pebble's
// real internal/cache.Metrics exposes.
type Metrics struct {
	Count  int64
	Size   int64
	Hits   int64
	Misses int64
}

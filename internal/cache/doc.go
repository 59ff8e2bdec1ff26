// Package cache stores synthesized audio in two tiers: an in-memory LRU
// (L1) bounded by bytes and item count, and an optional zstd-compressed
// disk tier (L2) that survives restarts. Entries expire after a TTL.
package cache

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "L1-Memory"
	case LevelDisk:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// Stats holds counters for one tier.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
	LastEvict time.Time
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Metadata describes a cached item.
type Metadata struct {
	Key        string
	Size       int64
	CreatedAt  time.Time
	LastAccess time.Time
	Hits       int64
	Level      Level
}

// Expired reports whether the item is older than ttl. A zero ttl never
// expires.
func (m Metadata) Expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(m.CreatedAt) > ttl
}

// Config configures a Manager.
type Config struct {
	// MemoryBytes and MemoryItems bound the L1 tier. Zero items means
	// unbounded by count.
	MemoryBytes int64
	MemoryItems int

	// Dir enables the L2 tier when set.
	Dir              string
	DiskBytes        int64
	DiskItems        int
	CompressionLevel int

	// TTL expires items by age. Zero disables expiry.
	TTL             time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns the cloud audio cache defaults.
func DefaultConfig() Config {
	return Config{
		MemoryBytes:      32 * 1024 * 1024,
		DiskBytes:        100 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Key derives a fixed length cache key from its parts.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(hash[:16])
}

package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager fronts an optional disk tier with a memory tier. Reads fall
// through from L1 to L2 and promote hits; writes go to both tiers.
type Manager struct {
	memory *Memory
	disk   *Disk // nil when Config.Dir is empty
	ttl    time.Duration
	now    func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Hits        int64
	Misses      int64
	MemoryHits  int64
	DiskHits    int64
	Expired     int64
	CleanupRuns int64
	LastCleanup time.Time

	Memory Stats
	Disk   *Stats
}

// NewManager creates a Manager and starts its cleanup loop when
// CleanupInterval is positive.
func NewManager(config Config) (*Manager, error) {
	if config.MemoryBytes <= 0 {
		config.MemoryBytes = DefaultConfig().MemoryBytes
	}

	m := &Manager{
		memory: NewMemory(config.MemoryBytes, config.MemoryItems),
		ttl:    config.TTL,
		now:    time.Now,
		stop:   make(chan struct{}),
	}

	if config.Dir != "" {
		if config.DiskBytes <= 0 {
			config.DiskBytes = DefaultConfig().DiskBytes
		}
		disk, err := NewDisk(config.Dir, config.DiskBytes, config.DiskItems, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		m.disk = disk
	}

	if config.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(config.CleanupInterval)
	}
	return m, nil
}

// Get returns the value for key from the fastest tier holding an
// unexpired copy.
func (m *Manager) Get(key string) ([]byte, bool) {
	data, _, ok := m.GetWithMetadata(key)
	return data, ok
}

// GetWithMetadata is Get plus the item's metadata.
func (m *Manager) GetWithMetadata(key string) ([]byte, Metadata, bool) {
	now := m.now()

	if data, meta, ok := m.memory.GetWithMetadata(key); ok {
		if !meta.Expired(m.ttl, now) {
			m.record(func(s *ManagerStats) { s.Hits++; s.MemoryHits++ })
			return data, meta, true
		}
		_ = m.Delete(key)
		m.record(func(s *ManagerStats) { s.Expired++; s.Misses++ })
		return nil, Metadata{}, false
	}

	if m.disk != nil {
		if data, meta, ok := m.disk.GetWithMetadata(key); ok {
			if !meta.Expired(m.ttl, now) {
				m.record(func(s *ManagerStats) { s.Hits++; s.DiskHits++ })
				_ = m.memory.put(key, data, meta.CreatedAt)
				return data, meta, true
			}
			_ = m.disk.Delete(key)
			m.record(func(s *ManagerStats) { s.Expired++; s.Misses++ })
			return nil, Metadata{}, false
		}
	}

	m.record(func(s *ManagerStats) { s.Misses++ })
	return nil, Metadata{}, false
}

// Put stores value in both tiers. An item too large for memory is still
// kept on disk.
func (m *Manager) Put(key string, value []byte) error {
	now := m.now()

	memErr := m.memory.put(key, value, now)
	if memErr != nil && !errors.Is(memErr, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", memErr)
	}

	if m.disk == nil {
		return memErr
	}
	if err := m.disk.put(key, value, now); err != nil {
		if memErr != nil {
			return err
		}
		log.Warn("Could not write disk cache", "key", key, "err", err)
	}
	return nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	err := m.memory.Delete(key)
	if m.disk != nil {
		err = errors.Join(err, m.disk.Delete(key))
	}
	return err
}

// Keys returns every cached key, most recently used first.
func (m *Manager) Keys() []string {
	keys := m.memory.Keys()
	if m.disk == nil {
		return keys
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	for _, k := range m.disk.Keys() {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len returns the number of distinct keys.
func (m *Manager) Len() int {
	return len(m.Keys())
}

// Stats returns aggregated statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.Memory = m.memory.Stats()
	if m.disk != nil {
		ds := m.disk.Stats()
		stats.Disk = &ds
	}
	return stats
}

// Cleanup removes expired items from both tiers and persists the disk
// index. It runs periodically when a cleanup interval is configured.
func (m *Manager) Cleanup() int {
	removed := 0
	if m.ttl > 0 {
		removed += m.memory.Prune(m.ttl)
		if m.disk != nil {
			removed += m.disk.RemoveOlderThan(m.now().Add(-m.ttl))
		}
	}
	if m.disk != nil {
		if err := m.disk.Sync(); err != nil {
			log.Warn("Could not save cache index", "err", err)
		}
	}

	m.record(func(s *ManagerStats) {
		s.CleanupRuns++
		s.LastCleanup = m.now()
	})
	if removed > 0 {
		log.Debug("Cache cleanup", "removed", removed)
	}
	return removed
}

// Close stops the cleanup loop and saves the disk index.
func (m *Manager) Close() error {
	m.once.Do(func() { close(m.stop) })
	m.wg.Wait()

	if m.disk != nil {
		if err := m.disk.Close(); err != nil {
			return fmt.Errorf("failed to close disk cache: %w", err)
		}
	}
	return nil
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) record(fn func(*ManagerStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}

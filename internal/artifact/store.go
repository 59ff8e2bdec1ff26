// Package artifact keeps synthesized audio addressable by id so the web
// interface can stream and download it after a /speak request.
package artifact

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/cache"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Config bounds the store.
type Config struct {
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration

	// Dir persists artifacts across restarts when set.
	Dir string
}

// DefaultConfig returns the web server defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries: 100,
		MaxBytes:   64 * 1024 * 1024,
		TTL:        time.Hour,
	}
}

// Store is a bounded artifact store. The oldest artifacts are evicted once
// the entry or byte bound is reached, and artifacts expire after the TTL.
type Store struct {
	cache *cache.Manager
}

// record is the gob form of an artifact.
type record struct {
	ID        string
	Backend   tts.Backend
	Format    tts.Format
	Data      []byte
	CreatedAt time.Time
	Elapsed   time.Duration
	Text      string
}

// NewStore opens a store.
func NewStore(config Config) (*Store, error) {
	def := DefaultConfig()
	if config.MaxEntries <= 0 {
		config.MaxEntries = def.MaxEntries
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = def.MaxBytes
	}

	interval := time.Minute
	if config.TTL > 0 && config.TTL/4 < interval {
		interval = config.TTL / 4
	}

	m, err := cache.NewManager(cache.Config{
		MemoryBytes:     config.MaxBytes,
		MemoryItems:     config.MaxEntries,
		Dir:             config.Dir,
		DiskBytes:       config.MaxBytes,
		DiskItems:       config.MaxEntries,
		TTL:             config.TTL,
		CleanupInterval: interval,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open artifact store: %w", err)
	}

	s := &Store{cache: m}
	log.Debug("Artifact store opened", "max_entries", config.MaxEntries, "max_bytes", config.MaxBytes,
		"ttl", config.TTL, "dir", config.Dir, "existing", m.Len())
	return s, nil
}

// Put implements tts.ArtifactStore. The artifact id must be a UUID.
func (s *Store) Put(a *tts.Artifact) error {
	if _, err := uuid.Parse(a.ID); err != nil {
		return tts.ErrInvalidArtifactID
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(record{
		ID:        a.ID,
		Backend:   a.Backend,
		Format:    a.Format,
		Data:      a.Data,
		CreatedAt: a.CreatedAt,
		Elapsed:   a.Elapsed,
		Text:      a.Text,
	})
	if err != nil {
		return fmt.Errorf("unable to encode artifact: %w", err)
	}

	if err := s.cache.Put(a.ID, buf.Bytes()); err != nil {
		return fmt.Errorf("unable to store artifact %s: %w", a.ID, err)
	}
	return nil
}

// Get implements tts.ArtifactStore. Ids that are not UUIDs are rejected
// before any lookup, so path-like ids never reach storage.
func (s *Store) Get(id string) (*tts.Artifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, tts.ErrInvalidArtifactID
	}

	data, ok := s.cache.Get(id)
	if !ok {
		return nil, tts.ErrArtifactNotFound
	}

	var r record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		_ = s.cache.Delete(id)
		return nil, fmt.Errorf("%w: %w", tts.ErrArtifactNotFound, err)
	}

	return &tts.Artifact{
		ID:        r.ID,
		Backend:   r.Backend,
		Format:    r.Format,
		Data:      r.Data,
		Size:      int64(len(r.Data)),
		CreatedAt: r.CreatedAt,
		Elapsed:   r.Elapsed,
		Text:      r.Text,
	}, nil
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Stats summarizes the store for the system endpoint.
type Stats struct {
	Count     int    `json:"count"`
	Bytes     int64  `json:"bytes"`
	Size      string `json:"size"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Expired   int64  `json:"expired"`
	Evictions int64  `json:"evictions"`
}

// Stats returns counts and sizes. Byte figures come from the disk tier
// when the store is persisted.
func (s *Store) Stats() Stats {
	cs := s.cache.Stats()
	tier := cs.Memory
	if cs.Disk != nil {
		tier = *cs.Disk
	}
	return Stats{
		Count:     s.cache.Len(),
		Bytes:     tier.Size,
		Size:      humanize.IBytes(uint64(tier.Size)), //nolint:gosec
		Hits:      cs.Hits,
		Misses:    cs.Misses,
		Expired:   cs.Expired,
		Evictions: tier.Evictions,
	}
}

// Close stops background cleanup and persists the index.
func (s *Store) Close() error {
	return s.cache.Close()
}

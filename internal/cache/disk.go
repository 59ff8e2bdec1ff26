package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const indexFile = "cache.index"

// Disk is the L2 tier. Values are zstd-compressed when that saves space and
// written through a temp file and rename. A gob index maps keys to files.
type Disk struct {
	dir      string
	capacity int64
	maxItems int
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	Key          string
	File         string
	Size         int64 // on disk
	OriginalSize int64
	CreatedAt    time.Time
	LastAccess   time.Time
	Hits         int64
	Compressed   bool
}

// NewDisk opens or creates an L2 tier in dir. A compressionLevel of 0
// stores values as-is.
func NewDisk(dir string, capacity int64, maxItems, compressionLevel int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		maxItems: maxItems,
		index:    make(map[string]*diskEntry),
	}

	if compressionLevel > 0 {
		var err error
		d.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		d.decoder, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
	}

	if err := d.loadIndex(); err != nil {
		log.Warn("Discarding unreadable cache index", "dir", dir, "err", err)
		d.index = make(map[string]*diskEntry)
	}
	for key, entry := range d.index {
		if _, err := os.Stat(entry.File); err != nil {
			delete(d.index, key)
			continue
		}
		d.size += entry.Size
	}

	return d, nil
}

// Get reads and decompresses the value for key. Unreadable entries are
// dropped and reported as misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	data, _, ok := d.GetWithMetadata(key)
	return data, ok
}

// GetWithMetadata is Get plus the item's metadata.
func (d *Disk) GetWithMetadata(key string) ([]byte, Metadata, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, Metadata{}, false
	}

	data, err := d.read(entry)
	if err != nil {
		log.Debug("Dropping unreadable cache entry", "key", key, "err", err)
		d.removeEntry(entry)
		d.stats.Misses++
		return nil, Metadata{}, false
	}

	entry.LastAccess = time.Now()
	entry.Hits++
	d.stats.Hits++
	return data, entry.metadata(), true
}

func (d *Disk) read(entry *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(entry.File)
	if err != nil {
		return nil, err
	}
	if !entry.Compressed {
		return data, nil
	}
	if d.decoder == nil {
		return nil, ErrCacheCorrupted
	}
	out, err := d.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupted, err)
	}
	return out, nil
}

// Put writes value to disk, evicting least recently used entries until it
// fits.
func (d *Disk) Put(key string, value []byte) error {
	return d.put(key, value, time.Now())
}

func (d *Disk) put(key string, value []byte, createdAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, compressed := value, false
	if d.encoder != nil && len(value) > 1024 {
		if c := d.encoder.EncodeAll(value, nil); len(c) < len(value) {
			data, compressed = c, true
		}
	}

	size := int64(len(data))
	if size > d.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := d.index[key]; ok {
		d.removeEntry(existing)
	}
	for len(d.index) > 0 && (d.size+size > d.capacity || (d.maxItems > 0 && len(d.index) >= d.maxItems)) {
		d.evictOldest()
	}

	path := d.path(key)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	d.index[key] = &diskEntry{
		Key:          key,
		File:         path,
		Size:         size,
		OriginalSize: int64(len(value)),
		CreatedAt:    createdAt,
		LastAccess:   time.Now(),
		Compressed:   compressed,
	}
	d.size += size
	return nil
}

// Delete removes key and its file.
func (d *Disk) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.index[key]; ok {
		d.removeEntry(entry)
	}
	return nil
}

// Contains reports whether key is indexed.
func (d *Disk) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.index[key]
	return ok
}

// Size returns the bytes on disk.
func (d *Disk) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.size
}

// Keys returns keys from most to least recently used.
func (d *Disk) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.sortedEntries()
	keys := make([]string, len(entries))
	for i := range entries {
		keys[len(entries)-1-i] = entries[i].Key
	}
	return keys
}

// RemoveOlderThan removes entries created before cutoff.
func (d *Disk) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for _, entry := range d.index {
		if entry.CreatedAt.Before(cutoff) {
			d.removeEntry(entry)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the tier's counters.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := d.stats
	stats.Capacity = d.capacity
	stats.Size = d.size
	stats.Items = len(d.index)
	return stats
}

// Sync writes the index to disk.
func (d *Disk) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.saveIndex()
}

// Close saves the index.
func (d *Disk) Close() error {
	err := d.Sync()
	if d.encoder != nil {
		_ = d.encoder.Close()
	}
	if d.decoder != nil {
		d.decoder.Close()
	}
	return err
}

func (d *Disk) path(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(hash[:16])+".cache")
}

// sortedEntries returns entries from least to most recently used.
func (d *Disk) sortedEntries() []*diskEntry {
	entries := make([]*diskEntry, 0, len(d.index))
	for _, entry := range d.index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})
	return entries
}

func (d *Disk) evictOldest() {
	entries := d.sortedEntries()
	if len(entries) == 0 {
		return
	}
	d.removeEntry(entries[0])
	d.stats.Evictions++
	d.stats.LastEvict = time.Now()
}

func (d *Disk) removeEntry(entry *diskEntry) {
	_ = os.Remove(entry.File)
	delete(d.index, entry.Key)
	d.size -= entry.Size
}

func (d *Disk) loadIndex() error {
	f, err := os.Open(filepath.Join(d.dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	return gob.NewDecoder(f).Decode(&d.index)
}

func (d *Disk) saveIndex() error {
	path := filepath.Join(d.dir, indexFile)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gob.NewEncoder(f).Encode(d.index)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeFileAtomic writes to a temp file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (e *diskEntry) metadata() Metadata {
	return Metadata{
		Key:        e.Key,
		Size:       e.OriginalSize,
		CreatedAt:  e.CreatedAt,
		LastAccess: e.LastAccess,
		Hits:       e.Hits,
		Level:      LevelDisk,
	}
}

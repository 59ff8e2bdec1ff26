package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisk_PutGetCompressed(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 0, 3)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close() //nolint:errcheck

	value := bytes.Repeat([]byte("audio"), 1000)
	if err := d.Put("key", value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if d.Size() >= int64(len(value)) {
		t.Errorf("expected compressed size below %d, got %d", len(value), d.Size())
	}

	got, meta, ok := d.GetWithMetadata("key")
	if !ok {
		t.Fatal("key not found")
	}
	if !bytes.Equal(got, value) {
		t.Error("value mismatch after decompression")
	}
	if meta.Size != int64(len(value)) || meta.Level != LevelDisk {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestDisk_PersistsIndex(t *testing.T) {
	dir := t.TempDir()

	d, err := NewDisk(dir, 1<<20, 0, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	d.Put("key", []byte("value")) //nolint:errcheck
	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, indexFile)); err != nil {
		t.Fatalf("index not written: %v", err)
	}

	reopened, err := NewDisk(dir, 1<<20, 0, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close() //nolint:errcheck

	got, ok := reopened.Get("key")
	if !ok || string(got) != "value" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}

func TestDisk_MissingFileIsMiss(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 0, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close() //nolint:errcheck

	d.Put("key", []byte("value")) //nolint:errcheck
	os.Remove(d.path("key"))      //nolint:errcheck

	if _, ok := d.Get("key"); ok {
		t.Error("expected miss when the file is gone")
	}
	if d.Contains("key") {
		t.Error("entry should be dropped from the index")
	}
}

func TestDisk_EvictsLeastRecentlyUsed(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 2, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close() //nolint:errcheck

	d.Put("a", []byte("1")) //nolint:errcheck
	time.Sleep(2 * time.Millisecond)
	d.Put("b", []byte("2")) //nolint:errcheck
	time.Sleep(2 * time.Millisecond)
	d.Get("a")
	d.Put("c", []byte("3")) //nolint:errcheck

	if d.Contains("b") {
		t.Error("b should have been evicted")
	}
	if !d.Contains("a") || !d.Contains("c") {
		t.Error("a and c should be cached")
	}
}

func TestDisk_RemoveOlderThan(t *testing.T) {
	d, err := NewDisk(t.TempDir(), 1<<20, 0, 0)
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	defer d.Close() //nolint:errcheck

	d.put("old", []byte("x"), time.Now().Add(-48*time.Hour)) //nolint:errcheck
	d.Put("new", []byte("y"))                                //nolint:errcheck

	if n := d.RemoveOlderThan(time.Now().Add(-24 * time.Hour)); n != 1 {
		t.Errorf("RemoveOlderThan() = %d, want 1", n)
	}
	if d.Contains("old") {
		t.Error("old entry should be removed")
	}
}

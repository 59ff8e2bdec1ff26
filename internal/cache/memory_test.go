package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemory_BasicOperations(t *testing.T) {
	c := NewMemory(1024, 0)

	if err := c.Put("key", []byte("value")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(got) != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}
	if c.Size() != 5 {
		t.Errorf("Size() = %d, want 5", c.Size())
	}

	if err := c.Delete("key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if c.Contains("key") {
		t.Error("key still present after delete")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after delete, want 0", c.Size())
	}
}

func TestMemory_LRUEvictionBySize(t *testing.T) {
	c := NewMemory(30, 0)

	for i := 0; i < 3; i++ {
		if err := c.Put(fmt.Sprintf("key-%d", i), make([]byte, 10)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Touch key-0 so key-1 becomes least recently used.
	c.Get("key-0")

	if err := c.Put("key-3", make([]byte, 10)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if c.Contains("key-1") {
		t.Error("key-1 should have been evicted")
	}
	for _, key := range []string{"key-0", "key-2", "key-3"} {
		if !c.Contains(key) {
			t.Errorf("%s should still be cached", key)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestMemory_EvictionByCount(t *testing.T) {
	c := NewMemory(1<<20, 2)

	c.Put("a", []byte("1")) //nolint:errcheck
	c.Put("b", []byte("2")) //nolint:errcheck
	c.Put("c", []byte("3")) //nolint:errcheck

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if c.Contains("a") {
		t.Error("oldest item should have been evicted")
	}
}

func TestMemory_ItemTooLarge(t *testing.T) {
	c := NewMemory(100, 0)

	if err := c.Put("large", make([]byte, 200)); err != ErrItemTooLarge {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemory_UpdateExisting(t *testing.T) {
	c := NewMemory(1024, 0)

	c.Put("key", []byte("original"))      //nolint:errcheck
	c.Put("key", []byte("updated-value")) //nolint:errcheck

	got, _ := c.Get("key")
	if string(got) != "updated-value" {
		t.Errorf("got %q, want updated-value", got)
	}
	if c.Size() != int64(len("updated-value")) {
		t.Errorf("Size() = %d, want %d", c.Size(), len("updated-value"))
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemory_KeysMostRecentFirst(t *testing.T) {
	c := NewMemory(1024, 0)
	c.Put("a", []byte("1")) //nolint:errcheck
	c.Put("b", []byte("2")) //nolint:errcheck
	c.Put("c", []byte("3")) //nolint:errcheck
	c.Get("a")

	keys := c.Keys()
	want := []string{"a", "c", "b"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestMemory_Stats(t *testing.T) {
	c := NewMemory(1024, 0)

	c.Put("key1", []byte("value1")) //nolint:errcheck
	c.Get("key1")
	c.Get("key2")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate() = %f, want 0.5", stats.HitRate())
	}
	if stats.Items != 1 || stats.Capacity != 1024 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMemory_Prune(t *testing.T) {
	c := NewMemory(1024, 0)

	c.put("old", []byte("x"), time.Now().Add(-2*time.Hour)) //nolint:errcheck
	c.Put("new", []byte("y"))                               //nolint:errcheck

	if n := c.Prune(time.Hour); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if c.Contains("old") || !c.Contains("new") {
		t.Error("Prune removed the wrong item")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	c := NewMemory(10*1024, 50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				c.Put(key, []byte("value")) //nolint:errcheck
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds item bound", c.Len())
	}
}

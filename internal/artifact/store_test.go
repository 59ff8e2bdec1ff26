package artifact

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/google/uuid"
)

func newArtifact(data string) *tts.Artifact {
	return &tts.Artifact{
		ID:        uuid.NewString(),
		Backend:   tts.BackendCloud,
		Format:    tts.FormatMP3,
		Data:      []byte(data),
		CreatedAt: time.Now(),
		Elapsed:   250 * time.Millisecond,
		Text:      "hello",
	}
}

func newTestStore(t *testing.T, config Config) *Store {
	t.Helper()
	s, err := NewStore(config)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := newTestStore(t, DefaultConfig())

	a := newArtifact("mp3 data")
	if err := s.Put(a); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != "mp3 data" || got.Format != tts.FormatMP3 || got.Backend != tts.BackendCloud {
		t.Errorf("unexpected artifact: %+v", got)
	}
	if got.Size != int64(len("mp3 data")) {
		t.Errorf("Size = %d", got.Size)
	}
}

func TestStore_GetErrors(t *testing.T) {
	s := newTestStore(t, DefaultConfig())

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"path traversal", "../etc/passwd", tts.ErrInvalidArtifactID},
		{"slash", "a/b", tts.ErrInvalidArtifactID},
		{"empty", "", tts.ErrInvalidArtifactID},
		{"unknown", uuid.NewString(), tts.ErrArtifactNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Get(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestStore_EvictsOldestBeyondMaxEntries(t *testing.T) {
	s := newTestStore(t, Config{MaxEntries: 2, MaxBytes: 1 << 20})

	first := newArtifact("1")
	second := newArtifact("2")
	third := newArtifact("3")
	for _, a := range []*tts.Artifact{first, second, third} {
		if err := s.Put(a); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if _, err := s.Get(first.ID); !errors.Is(err, tts.ErrArtifactNotFound) {
		t.Errorf("oldest artifact should be evicted, got %v", err)
	}
	if _, err := s.Get(third.ID); err != nil {
		t.Errorf("newest artifact missing: %v", err)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t, DefaultConfig())

	a := newArtifact("first")
	s.Put(a)                     //nolint:errcheck
	s.Put(newArtifact("second")) //nolint:errcheck

	if _, err := s.Get(a.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := s.Get(uuid.NewString()); !errors.Is(err, tts.ErrArtifactNotFound) {
		t.Fatalf("Get error = %v, want ErrArtifactNotFound", err)
	}

	stats := s.Stats()
	if stats.Count != 2 {
		t.Errorf("Count = %d, want 2", stats.Count)
	}
	if stats.Bytes <= 0 || stats.Size == "" {
		t.Errorf("Bytes = %d, Size = %q", stats.Bytes, stats.Size)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits = %d, Misses = %d, want 1 and 1", stats.Hits, stats.Misses)
	}
}

func TestStore_PersistsToDir(t *testing.T) {
	dir := t.TempDir()
	config := Config{MaxEntries: 10, MaxBytes: 1 << 20, Dir: dir}

	s, err := NewStore(config)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	a := newArtifact("persisted")
	s.Put(a) //nolint:errcheck
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := newTestStore(t, config)
	got, err := reopened.Get(a.ID)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got.Data) != "persisted" {
		t.Errorf("Data = %q", got.Data)
	}
}

func TestStore_RejectsNonUUID(t *testing.T) {
	s := newTestStore(t, DefaultConfig())

	a := newArtifact("x")
	a.ID = "not-a-uuid"
	if err := s.Put(a); !errors.Is(err, tts.ErrInvalidArtifactID) {
		t.Errorf("Put error = %v, want ErrInvalidArtifactID", err)
	}
}

package tts

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestHistory(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		h.Add(HistoryEntry{ID: id})
	}

	got := h.Entries()
	if len(got) != 3 || got[0].ID != "d" || got[2].ID != "b" {
		t.Errorf("Entries() = %+v", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("  short\n text "); got != "short text" {
		t.Errorf("Preview() = %q", got)
	}

	long := strings.Repeat("abcdefghij", 8)
	got := Preview(long)
	if !strings.HasSuffix(got, "...") || runewidth.StringWidth(got) != PreviewWidth+3 {
		t.Errorf("Preview(long) = %q (width %d)", got, runewidth.StringWidth(got))
	}

	wide := strings.Repeat("語", 40)
	if w := runewidth.StringWidth(Preview(wide)); w > PreviewWidth+3 {
		t.Errorf("Preview(wide) width = %d", w)
	}
}

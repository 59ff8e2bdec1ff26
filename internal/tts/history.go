package tts

import (
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

// HistoryEntry summarizes a completed request.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Preview   string        `json:"text"`
	Backend   Backend       `json:"backend"`
	Voice     string        `json:"voice,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// History is a bounded, concurrency-safe list of recent requests.
type History struct {
	mu      sync.Mutex
	size    int
	entries []HistoryEntry
}

// NewHistory returns a history that keeps the last size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = HistorySize
	}
	return &History{size: size}
}

// Add records an entry, dropping the oldest one when full.
func (h *History) Add(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
}

// Entries returns the entries, newest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

// Preview shortens text to PreviewWidth display cells.
func Preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if runewidth.StringWidth(text) <= PreviewWidth {
		return text
	}
	return runewidth.Truncate(text, PreviewWidth+3, "...")
}

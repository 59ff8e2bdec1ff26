package audio

import (
	"context"
	"sync"

	"github.com/dgnsrekt/pitts/internal/tts"
)

// MockPlayer records played audio without producing sound.
type MockPlayer struct {
	mu     sync.Mutex
	played []*tts.Audio
	closed bool

	// Err is returned from every Play call when set.
	Err error

	// OnPlay is called for each Play.
	OnPlay func(a *tts.Audio)
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Name implements Player.
func (m *MockPlayer) Name() string {
	return "mock"
}

// Play implements Player.
func (m *MockPlayer) Play(ctx context.Context, a *tts.Audio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.OnPlay != nil {
		m.OnPlay(a)
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, a)
	return nil
}

// Played returns every audio played so far.
func (m *MockPlayer) Played() []*tts.Audio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tts.Audio(nil), m.played...)
}

// Closed reports whether Close was called.
func (m *MockPlayer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

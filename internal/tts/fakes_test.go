package tts

import (
	"context"
	"errors"
	"sync"
)

// fakeEngine records calls and returns canned audio.
type fakeEngine struct {
	backend Backend
	format  Format
	err     error
	voices  []Voice

	mu     sync.Mutex
	calls  []SynthesisParams
	closed bool
}

func newFakeEngine(b Backend) *fakeEngine {
	return &fakeEngine{backend: b, format: FormatWAV}
}

func (f *fakeEngine) Backend() Backend { return f.backend }

func (f *fakeEngine) Synthesize(ctx context.Context, params SynthesisParams) (*Audio, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &Audio{Format: f.format, Data: []byte("RIFF" + params.Text), Gain: params.Volume}, nil
}

func (f *fakeEngine) Voices(ctx context.Context, language string) ([]Voice, error) {
	return f.voices, f.err
}

func (f *fakeEngine) Available() error { return nil }

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEngine) Calls() []SynthesisParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SynthesisParams(nil), f.calls...)
}

// fakeSink records played and saved audio.
type fakeSink struct {
	played  []*Audio
	saved   map[string]*Audio
	playErr error
}

func (s *fakeSink) Play(ctx context.Context, a *Audio) error {
	if s.playErr != nil {
		return s.playErr
	}
	s.played = append(s.played, a)
	return nil
}

func (s *fakeSink) Save(ctx context.Context, path string, a *Audio) (string, error) {
	if s.saved == nil {
		s.saved = make(map[string]*Audio)
	}
	s.saved[path] = a
	return "/abs/" + path, nil
}

// fakeStore is an in-memory ArtifactStore.
type fakeStore struct {
	artifacts map[string]*Artifact
}

func (s *fakeStore) Put(a *Artifact) error {
	if s.artifacts == nil {
		s.artifacts = make(map[string]*Artifact)
	}
	s.artifacts[a.ID] = a
	return nil
}

func (s *fakeStore) Get(id string) (*Artifact, error) {
	a, ok := s.artifacts[id]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return a, nil
}

var errBoom = errors.New("boom")

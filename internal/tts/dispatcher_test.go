package tts

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcher(t *testing.T) {
	offline := newFakeEngine(BackendOffline)
	d := NewDispatcher(offline)

	if _, err := d.Engine(BackendCloud); !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Engine(cloud) error = %v", err)
	}
	if _, err := d.Dispatch(context.Background(), BackendCloud, SynthesisParams{Text: "x"}); !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Dispatch(cloud) error = %v", err)
	}

	audio, err := d.Dispatch(context.Background(), BackendOffline, SynthesisParams{Text: "hi"})
	if err != nil || audio.Format != FormatWAV {
		t.Fatalf("Dispatch() = %v, %v", audio, err)
	}

	replacement := newFakeEngine(BackendOffline)
	d.Register(replacement)
	if _, err := d.Dispatch(context.Background(), BackendOffline, SynthesisParams{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if len(offline.Calls()) != 1 || len(replacement.Calls()) != 1 {
		t.Error("Register did not replace the engine")
	}
}

type emptyEngine struct{ *fakeEngine }

func (emptyEngine) Synthesize(context.Context, SynthesisParams) (*Audio, error) {
	return &Audio{Format: FormatWAV}, nil
}

func TestDispatcher_EmptyAudio(t *testing.T) {
	d := NewDispatcher(emptyEngine{newFakeEngine(BackendOffline)})
	_, err := d.Dispatch(context.Background(), BackendOffline, SynthesisParams{Text: "hi"})
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Errorf("error = %v, want ErrSynthesisFailed", err)
	}
}

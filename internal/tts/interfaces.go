package tts

import (
	"context"
)

// Engine is a speech synthesis backend.
// Implementations clamp parameters to their native ranges instead of
// rejecting them.
type Engine interface {
	// Backend returns the identifier the engine is registered under.
	Backend() Backend

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, params SynthesisParams) (*Audio, error)

	// Voices lists the voices available for a language ("" for all).
	Voices(ctx context.Context, language string) ([]Voice, error)

	// Available reports whether the engine can run on this machine.
	Available() error

	// Close releases any resources held by the engine.
	Close() error
}

// Sink plays or saves synthesized audio.
type Sink interface {
	// Play blocks until the audio has finished playing or ctx is done.
	Play(ctx context.Context, audio *Audio) error

	// Save writes the audio to path and returns the path actually written.
	Save(ctx context.Context, path string, audio *Audio) (string, error)
}

// ArtifactStore keeps artifacts for later retrieval by id.
type ArtifactStore interface {
	Put(artifact *Artifact) error
	Get(id string) (*Artifact, error)
}

package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgnsrekt/pitts/internal/tts"
)

// Player plays synthesized audio and blocks until playback finishes or ctx
// is cancelled.
type Player interface {
	Play(ctx context.Context, a *tts.Audio) error
	Name() string
	Close() error
}

// PlayerConfig selects and configures a Player.
type PlayerConfig struct {
	// Kind is "auto", "oto" or "command".
	Kind       string
	SampleRate int
	WAVCommand string
	MP3Command string
	FFmpeg     string
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Kind:       "auto",
		SampleRate: 44100,
		WAVCommand: "aplay -q -",
		MP3Command: "mpg123 -q -",
		FFmpeg:     "ffmpeg",
	}
}

// NewPlayer returns the configured player. "auto" prefers oto and falls
// back to external commands when no audio device can be opened.
func NewPlayer(config PlayerConfig) (Player, error) {
	switch strings.ToLower(config.Kind) {
	case "command":
		return NewCommandPlayer(config.WAVCommand, config.MP3Command), nil
	case "oto":
		p, err := NewOtoPlayer(config.SampleRate, NewTranscoder(config.FFmpeg))
		if err != nil {
			return nil, err
		}
		return p, nil
	case "", "auto":
		p, err := NewOtoPlayer(config.SampleRate, NewTranscoder(config.FFmpeg))
		if err == nil {
			return p, nil
		}
		return NewCommandPlayer(config.WAVCommand, config.MP3Command), nil
	default:
		return nil, fmt.Errorf("unknown player %q", config.Kind)
	}
}

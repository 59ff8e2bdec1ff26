//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"errors"

	"github.com/dgnsrekt/pitts/internal/tts"
)

var errNoCgo = errors.New("audio device not available in nocgo build")

// OtoPlayer stub for nocgo builds.
type OtoPlayer struct{}

// NewOtoPlayer always fails in nocgo builds.
func NewOtoPlayer(sampleRate int, transcoder *Transcoder) (*OtoPlayer, error) {
	return nil, errNoCgo
}

func (p *OtoPlayer) Name() string { return "oto" }

func (p *OtoPlayer) Play(ctx context.Context, a *tts.Audio) error { return errNoCgo }

func (p *OtoPlayer) PlayPCM(ctx context.Context, pcm *PCM, gain float64) error { return errNoCgo }

func (p *OtoPlayer) Close() error { return nil }

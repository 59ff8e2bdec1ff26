//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoErr     error
)

func sharedContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoContext, otoRate = ctx, sampleRate
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio context already open at %d Hz", otoRate)
	}
	return otoContext, nil
}

// OtoPlayer plays audio through the system audio device.
type OtoPlayer struct {
	context    *oto.Context
	sampleRate int
	transcoder *Transcoder

	// playback is serialized; the device is shared
	mu sync.Mutex
}

// NewOtoPlayer opens the audio device. sampleRate must be 44100 or 48000.
func NewOtoPlayer(sampleRate int, transcoder *Transcoder) (*OtoPlayer, error) {
	if sampleRate != 44100 && sampleRate != 48000 {
		return nil, fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", sampleRate)
	}
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	return &OtoPlayer{context: ctx, sampleRate: sampleRate, transcoder: transcoder}, nil
}

// Name implements Player.
func (p *OtoPlayer) Name() string {
	return "oto"
}

// Play implements Player.
func (p *OtoPlayer) Play(ctx context.Context, a *tts.Audio) error {
	if a == nil || len(a.Data) == 0 {
		return errors.New("audio data is empty")
	}

	pcm, err := Decode(ctx, a, p.sampleRate, p.transcoder)
	if err != nil {
		return err
	}
	return p.PlayPCM(ctx, pcm, a.Gain)
}

// PlayPCM plays decoded audio and waits for it to finish.
func (p *OtoPlayer) PlayPCM(ctx context.Context, pcm *PCM, gain float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The reader must keep pcm.Data alive until playback ends.
	player := p.context.NewPlayer(bytes.NewReader(pcm.Data))
	defer player.Close() //nolint:errcheck

	player.SetVolume(clampGain(gain))
	player.Play()
	log.Debug("Playback started", "duration", pcm.Duration(), "gain", gain)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

// Close implements Player. The shared context stays open for the life of
// the process.
func (p *OtoPlayer) Close() error {
	return nil
}

func clampGain(gain float64) float64 {
	if gain < 0 {
		return 0
	}
	if gain > 1 {
		return 1
	}
	return gain
}

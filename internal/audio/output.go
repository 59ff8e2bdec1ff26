package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/mitchellh/go-homedir"
)

// Output implements tts.Sink on top of a Player and ffmpeg.
type Output struct {
	player     Player
	transcoder *Transcoder
	sampleRate int
}

// NewOutput creates a sink. player may be nil for save-only use.
func NewOutput(player Player, transcoder *Transcoder, sampleRate int) *Output {
	if sampleRate == 0 {
		sampleRate = 44100
	}
	return &Output{player: player, transcoder: transcoder, sampleRate: sampleRate}
}

// Play implements tts.Sink.
func (o *Output) Play(ctx context.Context, a *tts.Audio) error {
	if o.player == nil {
		return errors.New("no audio player available")
	}
	return o.player.Play(ctx, a)
}

// Save implements tts.Sink. A missing extension gets the audio's own; an
// extension that differs from the audio format is converted first.
func (o *Output) Save(ctx context.Context, path string, a *tts.Audio) (string, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("unable to expand %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		path += a.Format.Extension()
		ext = a.Format.Extension()
	}

	data, err := o.convert(ctx, a, ext)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return "", fmt.Errorf("unable to write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	log.Debug("Saved audio", "path", abs, "bytes", len(data))
	return abs, nil
}

func (o *Output) convert(ctx context.Context, a *tts.Audio, ext string) ([]byte, error) {
	switch {
	case ext == ".wav" && a.Format == tts.FormatMP3:
		if o.transcoder == nil {
			return nil, errors.New("saving MP3 audio as WAV requires ffmpeg")
		}
		pcm, err := o.transcoder.ToPCM(ctx, a.Data, o.sampleRate)
		if err != nil {
			return nil, err
		}
		return EncodeWAV(pcm)

	case ext == ".mp3" && a.Format == tts.FormatWAV:
		if o.transcoder == nil {
			return nil, errors.New("saving WAV audio as MP3 requires ffmpeg")
		}
		return o.transcoder.ToMP3(ctx, a.Data)
	}
	return a.Data, nil
}

// Close closes the player.
func (o *Output) Close() error {
	if o.player == nil {
		return nil
	}
	return o.player.Close()
}

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
)

// Transcoder converts audio with ffmpeg.
type Transcoder struct {
	Binary  string
	Timeout time.Duration
}

// NewTranscoder returns a Transcoder for binary, defaulting to ffmpeg.
func NewTranscoder(binary string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{Binary: binary, Timeout: 30 * time.Second}
}

// Available reports whether the ffmpeg binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// ToPCM decodes any ffmpeg-readable input to mono 16-bit PCM at rate.
func (t *Transcoder) ToPCM(ctx context.Context, data []byte, rate int) (*PCM, error) {
	out, err := t.run(ctx, data,
		"-f", "s16le", "-acodec", "pcm_s16le", "-ac", "1", "-ar", strconv.Itoa(rate), "pipe:1")
	if err != nil {
		return nil, err
	}
	return &PCM{Data: out, SampleRate: rate}, nil
}

// ToMP3 encodes input as MP3.
func (t *Transcoder) ToMP3(ctx context.Context, data []byte) ([]byte, error) {
	return t.run(ctx, data, "-f", "mp3", "pipe:1")
}

func (t *Transcoder) run(ctx context.Context, input []byte, outArgs ...string) ([]byte, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := append([]string{"-hide_banner", "-loglevel", "error", "-i", "pipe:0"}, outArgs...)
	cmd := exec.CommandContext(ctx, t.Binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s not found in PATH (install with: sudo apt install ffmpeg): %w", t.Binary, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", t.Binary, err, strings.TrimSpace(stderr.String()))
	}
	log.Debug("Transcoded audio", "in", len(input), "out", stdout.Len(), "duration", time.Since(start))

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", t.Binary)
	}
	return stdout.Bytes(), nil
}

// Decode converts synthesized audio to PCM at rate. WAV is decoded in
// process; MP3, and WAV that fails to parse, go through ffmpeg.
func Decode(ctx context.Context, a *tts.Audio, rate int, t *Transcoder) (*PCM, error) {
	if a.Format == tts.FormatWAV {
		pcm, err := DecodeWAV(a.Data, rate)
		if err == nil {
			return pcm, nil
		}
		log.Debug("Falling back to ffmpeg for WAV", "err", err)
	}
	if t == nil {
		return nil, fmt.Errorf("cannot decode %s audio without ffmpeg", a.Format)
	}
	return t.ToPCM(ctx, a.Data, rate)
}

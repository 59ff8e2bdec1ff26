package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
)

// CommandPlayer pipes audio into an external player such as aplay or
// mpg123.
type CommandPlayer struct {
	wav []string
	mp3 []string
}

// NewCommandPlayer creates a player from command lines. The audio is
// written to the command's stdin.
func NewCommandPlayer(wavCommand, mp3Command string) *CommandPlayer {
	return &CommandPlayer{
		wav: strings.Fields(wavCommand),
		mp3: strings.Fields(mp3Command),
	}
}

// Name implements Player.
func (p *CommandPlayer) Name() string {
	return "command"
}

// Command returns the command line used for format.
func (p *CommandPlayer) Command(format tts.Format, gain float64) []string {
	var argv []string
	switch format {
	case tts.FormatMP3:
		argv = append(argv, p.mp3...)
		// mpg123 scales output with -f (32768 is unity).
		if len(argv) > 0 && strings.HasSuffix(argv[0], "mpg123") && gain >= 0 && gain < 1 {
			argv = append(argv[:1], append([]string{"-f", strconv.Itoa(int(gain * 32768))}, argv[1:]...)...)
		}
	default:
		argv = append(argv, p.wav...)
	}
	return argv
}

// Play implements Player.
func (p *CommandPlayer) Play(ctx context.Context, a *tts.Audio) error {
	if a == nil || len(a.Data) == 0 {
		return errors.New("audio data is empty")
	}

	data := a.Data
	if a.Format == tts.FormatWAV && a.Gain >= 0 && a.Gain < 1 {
		if pcm, err := DecodeWAV(data, 0); err == nil {
			pcm.ApplyGain(a.Gain)
			if scaled, err := EncodeWAV(pcm); err == nil {
				data = scaled
			}
		}
	}

	argv := p.Command(a.Format, a.Gain)
	if len(argv) == 0 {
		return fmt.Errorf("no player command configured for %s", a.Format)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug("Playing with command", "argv", argv, "bytes", len(data))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%s not found in PATH: %w", argv[0], err)
		}
		return fmt.Errorf("%s failed: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Close implements Player.
func (p *CommandPlayer) Close() error {
	return nil
}

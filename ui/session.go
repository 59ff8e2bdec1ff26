// Package ui provides the interactive speech prompt: a bubbletea TUI when
// attached to a terminal and a line-oriented REPL otherwise.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dustin/go-humanize"
)

// Speaker is the part of tts.Service the prompt needs.
type Speaker interface {
	Speak(ctx context.Context, req tts.SpeechRequest, opts ...tts.SpeakOption) (*tts.Result, error)
	Voices(ctx context.Context, backend, language string) ([]tts.Voice, error)
	History() []tts.HistoryEntry
	Defaults() tts.Defaults
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Reply is the result of one line of input.
type Reply struct {
	Output string

	// Markdown marks Output as markdown to be rendered.
	Markdown bool
	Quit     bool
}

// Session holds the per-prompt overrides layered on top of the service
// defaults. It is not safe for concurrent use.
type Session struct {
	speaker Speaker

	backend  string
	voice    string
	rate     int
	volume   *float64
	language string

	// savePath applies to the next utterance only.
	savePath string
	lastText string
}

// NewSession returns a session speaking through s.
func NewSession(s Speaker) *Session {
	return &Session{speaker: s}
}

// Settings returns the effective request settings.
func (s *Session) Settings() tts.Defaults {
	d := s.speaker.Defaults()
	if s.backend != "" {
		d.Backend = tts.Backend(s.backend)
	}
	if s.voice != "" {
		d.Voice = s.voice
	}
	if s.rate > 0 {
		d.Rate = s.rate
	}
	if s.volume != nil {
		d.Volume = *s.volume
	}
	if s.language != "" {
		d.Language = s.language
	}
	return d
}

// Execute runs one line of input. Plain text is spoken; lines starting with
// a slash are commands. Errors are meant to be shown to the user and never
// end the session.
func (s *Session) Execute(ctx context.Context, line string) (Reply, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reply{}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return s.speak(ctx, line)
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "backend":
		return s.setBackend(arg)
	case "voice":
		return s.setVoice(arg)
	case "rate":
		return s.setRate(arg)
	case "volume":
		return s.setVolume(arg)
	case "language", "lang":
		return s.setLanguage(arg)
	case "save":
		if arg == "" {
			return Reply{}, errors.New("usage: /save <file>")
		}
		s.savePath = arg
		return Reply{Output: fmt.Sprintf("Next utterance will be saved to %s", arg)}, nil
	case "voices":
		return s.voices(ctx, arg)
	case "history":
		return s.history(), nil
	case "copy":
		return s.copy()
	case "help", "?":
		return Reply{Output: helpText, Markdown: true}, nil
	case "exit", "quit", "q":
		return Reply{Output: "Bye!", Quit: true}, nil
	default:
		return Reply{}, fmt.Errorf("unknown command %q, type /help for a list", "/"+name)
	}
}

func (s *Session) speak(ctx context.Context, text string) (Reply, error) {
	d := s.Settings()
	req := tts.SpeechRequest{
		Text:     text,
		Backend:  string(d.Backend),
		VoiceID:  d.Voice,
		Rate:     d.Rate,
		Volume:   &d.Volume,
		Language: d.Language,
	}

	opts := []tts.SpeakOption{tts.Play()}
	savePath := s.savePath
	if savePath != "" {
		opts = []tts.SpeakOption{tts.SaveTo(savePath)}
	}

	res, err := s.speaker.Speak(ctx, req, opts...)
	if err != nil {
		return Reply{}, err
	}
	s.lastText = text
	s.savePath = ""

	elapsed := res.Artifact.Elapsed.Round(10 * time.Millisecond)
	if savePath != "" {
		return Reply{Output: fmt.Sprintf("Saved to %s (%s, %s)", res.Artifact.Path,
			humanize.IBytes(uint64(res.Artifact.Size)), elapsed)}, nil //nolint:gosec
	}
	return Reply{Output: fmt.Sprintf("Spoke with %s in %s", res.Artifact.Backend, elapsed)}, nil
}

func (s *Session) setBackend(arg string) (Reply, error) {
	if arg == "" {
		return Reply{Output: fmt.Sprintf("Backend: %s", s.Settings().Backend.Description())}, nil
	}
	b, err := tts.ParseBackend(arg)
	if err != nil {
		return Reply{}, err
	}
	s.backend = string(b)
	log.Debug("Backend changed", "backend", b)
	return Reply{Output: fmt.Sprintf("Backend set to %s", b.Description())}, nil
}

func (s *Session) setVoice(arg string) (Reply, error) {
	switch strings.ToLower(arg) {
	case "":
		voice := s.Settings().Voice
		if voice == "" {
			voice = "default"
		}
		return Reply{Output: fmt.Sprintf("Voice: %s", voice)}, nil
	case "default", "reset":
		s.voice = ""
		return Reply{Output: "Voice reset to default"}, nil
	}
	s.voice = arg
	return Reply{Output: fmt.Sprintf("Voice set to %s", arg)}, nil
}

func (s *Session) setRate(arg string) (Reply, error) {
	if arg == "" {
		return Reply{Output: fmt.Sprintf("Rate: %d wpm", s.Settings().Rate)}, nil
	}
	rate, err := strconv.Atoi(arg)
	if err != nil || rate <= 0 {
		return Reply{}, tts.NewSpeechError(tts.ErrorCodeInvalidInput,
			fmt.Sprintf("rate must be a positive number of words per minute, got %q", arg), err)
	}
	s.rate = rate
	return Reply{Output: fmt.Sprintf("Rate set to %d wpm", rate)}, nil
}

func (s *Session) setVolume(arg string) (Reply, error) {
	if arg == "" {
		return Reply{Output: fmt.Sprintf("Volume: %.1f", s.Settings().Volume)}, nil
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return Reply{}, tts.NewSpeechError(tts.ErrorCodeInvalidInput,
			fmt.Sprintf("volume must be a number between 0.0 and 1.0, got %q", arg), err)
	}
	if err := tts.ValidateVolume(v); err != nil {
		return Reply{}, err
	}
	s.volume = &v
	return Reply{Output: fmt.Sprintf("Volume set to %.1f", v)}, nil
}

func (s *Session) setLanguage(arg string) (Reply, error) {
	if arg == "" {
		return Reply{Output: fmt.Sprintf("Language: %s", s.Settings().Language)}, nil
	}
	s.language = tts.NormalizeLanguage(arg)
	return Reply{Output: fmt.Sprintf("Language set to %s", s.language)}, nil
}

func (s *Session) voices(ctx context.Context, filter string) (Reply, error) {
	d := s.Settings()
	voices, err := s.speaker.Voices(ctx, string(d.Backend), d.Language)
	if err != nil {
		return Reply{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Voices (%s, %s)\n\n", d.Backend, d.Language)
	n := 0
	for _, v := range voices {
		if filter != "" && !strings.Contains(strings.ToLower(v.ID+" "+v.Name), strings.ToLower(filter)) {
			continue
		}
		fmt.Fprintf(&b, "- `%s` %s", v.ID, v.Name)
		if v.Gender != "" {
			fmt.Fprintf(&b, " (%s)", strings.ToLower(v.Gender))
		}
		b.WriteString("\n")
		n++
	}
	if n == 0 {
		b.WriteString("No voices found.\n")
	}
	return Reply{Output: b.String(), Markdown: true}, nil
}

func (s *Session) history() Reply {
	entries := s.speaker.History()
	if len(entries) == 0 {
		return Reply{Output: "Nothing spoken yet."}
	}

	var b strings.Builder
	b.WriteString("## Recent\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s _(%s, %s)_\n", i+1, e.Preview, e.Backend, humanize.Time(e.CreatedAt))
	}
	return Reply{Output: b.String(), Markdown: true}
}

func (s *Session) copy() (Reply, error) {
	if s.lastText == "" {
		return Reply{}, errors.New("nothing to copy yet")
	}
	if err := writeClipboard(s.lastText); err != nil {
		return Reply{}, fmt.Errorf("unable to copy to clipboard: %w", err)
	}
	return Reply{Output: "Copied last text to clipboard"}, nil
}

const helpText = `# pitts

Type text and press **enter** to hear it.

| Command | |
|---|---|
| /backend <name> | offline or cloud |
| /voice <id> | voice id, or default |
| /rate <wpm> | speaking rate in words per minute |
| /volume <0-1> | output volume |
| /language <code> | language, e.g. en or en-GB |
| /save <file> | save the next utterance instead of playing it |
| /voices [filter] | list voices for the current backend |
| /history | recently spoken text |
| /copy | copy the last text to the clipboard |
| /help | this help |
| /exit | quit |
`

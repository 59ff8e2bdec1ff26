package engines

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/sahilm/fuzzy"
)

// espeak-ng accepts 80 to 450 words per minute.
const (
	minEspeakRate = 80
	maxEspeakRate = 450
)

// variant voices layered on top of the request language.
var espeakVariants = []struct {
	id      string
	name    string
	variant string
	gender  string
}{
	{"espeak-default", "Default", "", ""},
	{"espeak-male", "Male", "m3", "male"},
	{"espeak-female", "Female", "f3", "female"},
}

// EspeakConfig holds configuration for the offline engine.
type EspeakConfig struct {
	// Binary is the synthesizer executable. Empty selects espeak-ng and
	// falls back to espeak.
	Binary string

	// Pitch is passed through as -p (0 to 99, default 50).
	Pitch int

	// Timeout bounds a single synthesis call (default 30s).
	Timeout time.Duration
}

// EspeakEngine drives espeak-ng as a subprocess and returns WAV audio.
type EspeakEngine struct {
	binary  string
	pitch   int
	timeout time.Duration
	run     commandRunner

	mu     sync.Mutex
	voices []tts.Voice
}

// NewEspeakEngine creates the offline engine.
func NewEspeakEngine(config EspeakConfig) *EspeakEngine {
	if config.Binary == "" {
		config.Binary = findEspeak()
	}
	if config.Pitch <= 0 || config.Pitch > 99 {
		config.Pitch = 50
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &EspeakEngine{
		binary:  config.Binary,
		pitch:   config.Pitch,
		timeout: config.Timeout,
		run:     runCommand,
	}
}

func findEspeak() string {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return "espeak-ng"
}

// Backend implements tts.Engine.
func (e *EspeakEngine) Backend() tts.Backend {
	return tts.BackendOffline
}

// Synthesize implements tts.Engine.
func (e *EspeakEngine) Synthesize(ctx context.Context, params tts.SynthesisParams) (*tts.Audio, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, tts.EmptyInputError()
	}

	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	voice := e.resolveVoice(ctx, params.Voice, params.Language)
	args := e.args(voice, params)

	out, err := e.run(ctx, strings.NewReader(params.Text), e.binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, tts.SynthesisFailure(tts.BackendOffline,
				fmt.Errorf("%s not found in PATH (install with: sudo apt install espeak-ng): %w", e.binary, err))
		}
		return nil, tts.SynthesisFailure(tts.BackendOffline, err)
	}
	if len(out) == 0 {
		return nil, tts.SynthesisFailure(tts.BackendOffline, fmt.Errorf("%s produced no audio", e.binary))
	}

	return &tts.Audio{Format: tts.FormatWAV, Data: out, Gain: 1}, nil
}

// args builds the synthesizer arguments; text is supplied on stdin.
func (e *EspeakEngine) args(voice string, params tts.SynthesisParams) []string {
	return []string{
		"--stdout",
		"--stdin",
		"-v", voice,
		"-s", strconv.Itoa(clampInt(params.Rate, minEspeakRate, maxEspeakRate)),
		"-a", strconv.Itoa(int(clampFloat(params.Volume, 0, 2) * 100)),
		"-p", strconv.Itoa(e.pitch),
	}
}

// resolveVoice maps a voice id (variant name, list index, voice name or a
// fuzzy match of one) to an espeak -v argument.
func (e *EspeakEngine) resolveVoice(ctx context.Context, id, language string) string {
	lang := strings.ToLower(language)
	if lang == "" {
		lang = "en"
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return lang
	}

	for _, v := range espeakVariants {
		if strings.EqualFold(id, v.id) || strings.EqualFold(id, v.name) {
			if v.variant == "" {
				return lang
			}
			return lang + "+" + v.variant
		}
	}

	voices, err := e.Voices(ctx, "")
	if err != nil || len(voices) == 0 {
		return id
	}

	if idx, err := strconv.Atoi(id); err == nil {
		if idx >= 0 && idx < len(voices) {
			return e.resolveVoice(ctx, voices[idx].ID, language)
		}
		return lang
	}

	names := make([]string, len(voices))
	for i, v := range voices {
		if strings.EqualFold(v.ID, id) || strings.EqualFold(v.Name, id) {
			return v.ID
		}
		names[i] = v.Name
	}

	if matches := fuzzy.Find(id, names); len(matches) > 0 {
		match := voices[matches[0].Index]
		log.Debug("Fuzzy voice match", "query", id, "voice", match.Name)
		if strings.HasPrefix(match.ID, "espeak-") {
			return e.resolveVoice(ctx, match.ID, language)
		}
		return match.ID
	}
	return id
}

// Voices implements tts.Engine. The built-in variants come first, followed
// by the synthesizer's own voice list.
func (e *EspeakEngine) Voices(ctx context.Context, language string) ([]tts.Voice, error) {
	voices := make([]tts.Voice, 0, len(espeakVariants))
	for _, v := range espeakVariants {
		voices = append(voices, tts.Voice{
			ID:      v.id,
			Name:    v.name,
			Gender:  v.gender,
			Backend: tts.BackendOffline,
		})
	}

	installed, err := e.installedVoices(ctx)
	if err != nil {
		log.Debug("Could not list espeak voices", "err", err)
		return voices, nil
	}

	lang := strings.ToLower(tts.BaseLanguage(language))
	for _, v := range installed {
		if language == "" || strings.HasPrefix(strings.ToLower(v.Language), lang) {
			voices = append(voices, v)
		}
	}
	return voices, nil
}

func (e *EspeakEngine) installedVoices(ctx context.Context) ([]tts.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voices != nil {
		return e.voices, nil
	}

	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := e.run(ctx, nil, e.binary, "--voices")
	if err != nil {
		return nil, err
	}
	e.voices = parseEspeakVoices(out)
	return e.voices, nil
}

// parseEspeakVoices parses the table printed by --voices:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseEspeakVoices(out []byte) []tts.Voice {
	var voices []tts.Voice
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		lang := fields[1]
		if seen[lang] {
			continue
		}
		seen[lang] = true

		gender := ""
		if parts := strings.SplitN(fields[2], "/", 2); len(parts) == 2 {
			switch parts[1] {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}

		voices = append(voices, tts.Voice{
			ID:       lang,
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: lang,
			Gender:   gender,
			Backend:  tts.BackendOffline,
		})
	}
	return voices
}

// Available implements tts.Engine.
func (e *EspeakEngine) Available() error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("%s not found in PATH: %w\n\nInstall with: sudo apt install espeak-ng", e.binary, err)
	}
	return nil
}

// Close implements tts.Engine.
func (e *EspeakEngine) Close() error {
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

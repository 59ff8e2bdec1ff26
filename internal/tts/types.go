package tts

import (
	"time"
)

// Backend identifies a speech synthesis engine.
type Backend string

const (
	// BackendOffline is the local formant synthesizer (espeak-ng).
	BackendOffline Backend = "offline"

	// BackendCloud is the network speech service (Google).
	BackendCloud Backend = "cloud"
)

// String returns the string representation of the backend.
func (b Backend) String() string {
	return string(b)
}

// Description returns a human readable label for the backend.
func (b Backend) Description() string {
	switch b {
	case BackendOffline:
		return "Offline (espeak-ng)"
	case BackendCloud:
		return "Cloud (Google TTS)"
	default:
		return "Unknown"
	}
}

// Format is the container format of synthesized audio.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// ContentType returns the MIME type used when serving the format.
func (f Format) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// SpeechRequest is a single synthesis request as received from a caller.
// Zero values mean "use the configured default".
type SpeechRequest struct {
	Text     string   `json:"text"`
	Backend  string   `json:"backend,omitempty"`
	VoiceID  string   `json:"voice_id,omitempty"`
	Rate     int      `json:"rate,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Language string   `json:"language,omitempty"`
}

// SynthesisParams are the resolved parameters handed to an engine.
type SynthesisParams struct {
	Text     string
	Voice    string
	Rate     int     // words per minute
	Volume   float64 // 0.0 to 1.0
	Language string
}

// Audio is the raw output of an engine.
type Audio struct {
	Format Format
	Data   []byte

	// Gain is the volume the sink still has to apply. Engines that honour
	// the requested volume themselves set it to 1.
	Gain float64
}

// Artifact is a synthesized audio result owned by the request handler.
type Artifact struct {
	ID        string
	Backend   Backend
	Format    Format
	Data      []byte
	Path      string
	Size      int64
	CreatedAt time.Time
	Elapsed   time.Duration
	Text      string
}

// Voice describes a voice offered by an engine.
type Voice struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Language string  `json:"language,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	Backend  Backend `json:"backend"`
}

// Defaults are the request values used when a SpeechRequest leaves a field empty.
type Defaults struct {
	Backend  Backend `json:"backend"`
	Voice    string  `json:"voice,omitempty"`
	Rate     int     `json:"rate"`
	Volume   float64 `json:"volume"`
	Language string  `json:"language"`
}

// DefaultDefaults returns the baseline request defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Backend:  BackendOffline,
		Rate:     DefaultRate,
		Volume:   1.0,
		Language: "en",
	}
}

const (
	// DefaultRate is the speaking rate in words per minute.
	DefaultRate = 150

	// HistorySize is the number of recent requests kept in memory.
	HistorySize = 10

	// PreviewWidth is the display width of a history text preview.
	PreviewWidth = 50
)

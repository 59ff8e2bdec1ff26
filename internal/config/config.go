// Package config holds the pitts configuration model, its defaults and the
// viper loader.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/pitts/internal/tts"
)

// Config contains all configuration options.
type Config struct {
	// Request defaults
	Backend  string  `yaml:"backend"`
	Voice    string  `yaml:"voice"`
	Language string  `yaml:"language"`
	Rate     int     `yaml:"rate"`
	Volume   float64 `yaml:"volume"`

	Offline OfflineConfig `yaml:"offline"`
	Cloud   CloudConfig   `yaml:"cloud"`
	Audio   AudioConfig   `yaml:"audio"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

// OfflineConfig configures the espeak-ng engine.
type OfflineConfig struct {
	Binary  string        `yaml:"binary"`
	Pitch   int           `yaml:"pitch"`
	Timeout time.Duration `yaml:"timeout"`
}

// CloudConfig configures the Google engine.
type CloudConfig struct {
	APIKey            string        `yaml:"api_key"`
	Endpoint          string        `yaml:"endpoint"`
	TLD               string        `yaml:"tld"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	MaxChars          int           `yaml:"max_chars"`
}

// AudioConfig configures playback.
type AudioConfig struct {
	// Player is "auto", "oto" or "command".
	Player     string `yaml:"player"`
	SampleRate int    `yaml:"sample_rate"`
	WAVCommand string `yaml:"wav_command"`
	MP3Command string `yaml:"mp3_command"`
	FFmpeg     string `yaml:"ffmpeg"`
}

// ServerConfig configures the web server and its artifact store.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	RateLimit     float64       `yaml:"rate_limit"`
	Burst         int           `yaml:"burst"`
	MaxArtifacts  int           `yaml:"max_artifacts"`
	MaxArtifactMB int           `yaml:"max_artifact_mb"`
	ArtifactTTL   time.Duration `yaml:"artifact_ttl"`
	ArtifactDir   string        `yaml:"artifact_dir"`
}

// CacheConfig configures the cloud synthesis cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MaxSizeMB int           `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// LogConfig configures diagnostics and the event log.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Events string `yaml:"events"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:  string(tts.BackendOffline),
		Language: "en",
		Rate:     tts.DefaultRate,
		Volume:   1.0,
		Offline: OfflineConfig{
			Pitch:   50,
			Timeout: 30 * time.Second,
		},
		Cloud: CloudConfig{
			Endpoint:          "https://texttospeech.googleapis.com/v1",
			TLD:               "com",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 50,
			MaxChars:          4500,
		},
		Audio: AudioConfig{
			Player:     "auto",
			SampleRate: 44100,
			WAVCommand: "aplay -q -",
			MP3Command: "mpg123 -q -",
			FFmpeg:     "ffmpeg",
		},
		Server: ServerConfig{
			Addr:          "0.0.0.0:5000",
			RateLimit:     2,
			Burst:         5,
			MaxArtifacts:  100,
			MaxArtifactMB: 64,
			ArtifactTTL:   time.Hour,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MaxSizeMB: 100,
			TTL:       7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Defaults converts the request defaults to their tts form.
func (c Config) Defaults() tts.Defaults {
	b, err := tts.ParseBackend(c.Backend)
	if err != nil {
		b = tts.BackendOffline
	}
	return tts.Defaults{
		Backend:  b,
		Voice:    c.Voice,
		Rate:     c.Rate,
		Volume:   c.Volume,
		Language: c.Language,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	b, err := tts.ParseBackend(c.Backend)
	if err != nil {
		return fmt.Errorf("invalid backend %q: use offline or cloud", c.Backend)
	}
	c.Backend = string(b)

	if err := tts.ValidateVolume(c.Volume); err != nil {
		return err
	}

	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Cloud.Validate(); err != nil {
		return fmt.Errorf("cloud config: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	return nil
}

// Validate checks if the audio configuration is valid.
func (c *AudioConfig) Validate() error {
	switch strings.ToLower(c.Player) {
	case "auto", "oto", "command":
		c.Player = strings.ToLower(c.Player)
	default:
		return fmt.Errorf("invalid player %q: must be one of auto, oto, command", c.Player)
	}
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	return nil
}

// Validate checks if the cloud configuration is valid.
func (c *CloudConfig) Validate() error {
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be at least 1, got %d", c.RequestsPerMinute)
	}
	if c.MaxChars < 100 || c.MaxChars > 5000 {
		return fmt.Errorf("max_chars must be between 100 and 5000, got %d", c.MaxChars)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}

// Validate checks if the server configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.MaxArtifacts < 1 {
		return fmt.Errorf("max_artifacts must be at least 1, got %d", c.MaxArtifacts)
	}
	if c.MaxArtifactMB < 1 {
		return fmt.Errorf("max_artifact_mb must be at least 1, got %d", c.MaxArtifactMB)
	}
	return nil
}

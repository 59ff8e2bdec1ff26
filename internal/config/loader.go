package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Credentials are secrets read from the environment (or a .env file)
// rather than the YAML config.
type Credentials struct {
	GoogleAPIKey string `env:"GOOGLE_TTS_API_KEY"`
	GoogleTLD    string `env:"GTTS_TLD"`
}

// LoadCredentials loads the given .env files, when present, and parses
// Credentials from the environment.
func LoadCredentials(files ...string) (Credentials, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Could not load env file", "path", f, "err", err)
		}
	}
	creds, err := env.ParseAs[Credentials]()
	if err != nil {
		return Credentials{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return creds, nil
}

// Load reads configuration from v on top of DefaultConfig and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	getString(v, "backend", &cfg.Backend)
	getString(v, "voice", &cfg.Voice)
	getString(v, "language", &cfg.Language)
	getInt(v, "rate", &cfg.Rate)
	getFloat(v, "volume", &cfg.Volume)

	getString(v, "offline.binary", &cfg.Offline.Binary)
	getInt(v, "offline.pitch", &cfg.Offline.Pitch)
	getDuration(v, "offline.timeout", &cfg.Offline.Timeout)

	getString(v, "cloud.api_key", &cfg.Cloud.APIKey)
	getString(v, "cloud.endpoint", &cfg.Cloud.Endpoint)
	getString(v, "cloud.tld", &cfg.Cloud.TLD)
	getDuration(v, "cloud.timeout", &cfg.Cloud.Timeout)
	getInt(v, "cloud.requests_per_minute", &cfg.Cloud.RequestsPerMinute)
	getInt(v, "cloud.max_chars", &cfg.Cloud.MaxChars)

	getString(v, "audio.player", &cfg.Audio.Player)
	getInt(v, "audio.sample_rate", &cfg.Audio.SampleRate)
	getString(v, "audio.wav_command", &cfg.Audio.WAVCommand)
	getString(v, "audio.mp3_command", &cfg.Audio.MP3Command)
	getString(v, "audio.ffmpeg", &cfg.Audio.FFmpeg)

	getString(v, "server.addr", &cfg.Server.Addr)
	getFloat(v, "server.rate_limit", &cfg.Server.RateLimit)
	getInt(v, "server.burst", &cfg.Server.Burst)
	getInt(v, "server.max_artifacts", &cfg.Server.MaxArtifacts)
	getInt(v, "server.max_artifact_mb", &cfg.Server.MaxArtifactMB)
	getDuration(v, "server.artifact_ttl", &cfg.Server.ArtifactTTL)
	getString(v, "server.artifact_dir", &cfg.Server.ArtifactDir)

	if v.IsSet("cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("cache.enabled")
	}
	getString(v, "cache.dir", &cfg.Cache.Dir)
	getInt(v, "cache.max_size_mb", &cfg.Cache.MaxSizeMB)
	getDuration(v, "cache.ttl", &cfg.Cache.TTL)

	getString(v, "log.level", &cfg.Log.Level)
	getString(v, "log.file", &cfg.Log.File)
	getString(v, "log.events", &cfg.Log.Events)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyCredentials fills secrets that the config file left empty.
func (c *Config) ApplyCredentials(creds Credentials) {
	if c.Cloud.APIKey == "" {
		c.Cloud.APIKey = creds.GoogleAPIKey
	}
	if creds.GoogleTLD != "" {
		c.Cloud.TLD = creds.GoogleTLD
	}
}

func getString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func getInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func getFloat(v *viper.Viper, key string, dst *float64) {
	if v.IsSet(key) {
		*dst = v.GetFloat64(key)
	}
}

func getDuration(v *viper.Viper, key string, dst *time.Duration) {
	if !v.IsSet(key) {
		return
	}
	if d := v.GetDuration(key); d > 0 {
		*dst = d
		return
	}
	if d, err := time.ParseDuration(v.GetString(key)); err == nil {
		*dst = d
	}
}

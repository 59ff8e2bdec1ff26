package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/spf13/viper"
)

// TestDefaultConfig tests that default configuration is valid.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if cfg.Backend != "offline" {
		t.Errorf("Default backend should be offline, got %s", cfg.Backend)
	}
	if d := cfg.Defaults(); d.Backend != tts.BackendOffline || d.Rate != tts.DefaultRate || d.Volume != 1 {
		t.Errorf("unexpected defaults: %+v", d)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "backend alias",
			modify: func(c *Config) { c.Backend = "gTTS" },
		},
		{
			name:    "invalid backend",
			modify:  func(c *Config) { c.Backend = "festival" },
			wantErr: true,
			errMsg:  "invalid backend",
		},
		{
			name:    "volume too high",
			modify:  func(c *Config) { c.Volume = 1.5 },
			wantErr: true,
			errMsg:  "volume must be between",
		},
		{
			name:    "zero rate",
			modify:  func(c *Config) { c.Rate = 0 },
			wantErr: true,
			errMsg:  "rate must be positive",
		},
		{
			name:    "invalid player",
			modify:  func(c *Config) { c.Audio.Player = "vlc" },
			wantErr: true,
			errMsg:  "invalid player",
		},
		{
			name:    "invalid sample rate",
			modify:  func(c *Config) { c.Audio.SampleRate = 12345 },
			wantErr: true,
			errMsg:  "sample rate must be",
		},
		{
			name:    "chunk size too large",
			modify:  func(c *Config) { c.Cloud.MaxChars = 10000 },
			wantErr: true,
			errMsg:  "max_chars must be between",
		},
		{
			name:    "cloud timeout too short",
			modify:  func(c *Config) { c.Cloud.Timeout = time.Millisecond },
			wantErr: true,
			errMsg:  "timeout must be at least",
		},
		{
			name:    "empty server address",
			modify:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
			errMsg:  "addr cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestValidateNormalizesBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "google"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != "cloud" {
		t.Errorf("backend = %q, want cloud", cfg.Backend)
	}
}

func TestLoad(t *testing.T) {
	v := viper.New()
	v.Set("backend", "cloud")
	v.Set("rate", 200)
	v.Set("volume", 0.5)
	v.Set("cloud.timeout", "45s")
	v.Set("server.addr", "127.0.0.1:8080")
	v.Set("cache.enabled", false)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "cloud" || cfg.Rate != 200 || cfg.Volume != 0.5 {
		t.Errorf("request defaults not loaded: %+v", cfg)
	}
	if cfg.Cloud.Timeout != 45*time.Second {
		t.Errorf("cloud timeout = %v", cfg.Cloud.Timeout)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" || cfg.Cache.Enabled {
		t.Errorf("nested values not loaded: %+v %+v", cfg.Server, cfg.Cache)
	}
	if cfg.Audio.Player != "auto" {
		t.Errorf("unset values should keep defaults, got player %q", cfg.Audio.Player)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pitts.yml")
	data := "backend: espeak\nlanguage: de\noffline:\n  pitch: 70\nserver:\n  artifact_dir: /tmp/clips\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "offline" || cfg.Language != "de" || cfg.Offline.Pitch != 70 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Server.ArtifactDir != "/tmp/clips" {
		t.Errorf("artifact dir = %q", cfg.Server.ArtifactDir)
	}
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("volume", 2)

	if _, err := Load(v); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Load() error = %v, want invalid configuration", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_TTS_API_KEY", "")
	t.Setenv("GTTS_TLD", "")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("GOOGLE_TTS_API_KEY=from-file\nGTTS_TLD=co.uk\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// godotenv does not override variables that are already set.
	os.Unsetenv("GOOGLE_TTS_API_KEY") //nolint:errcheck
	os.Unsetenv("GTTS_TLD")           //nolint:errcheck

	creds, err := LoadCredentials(envFile, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.GoogleAPIKey != "from-file" || creds.GoogleTLD != "co.uk" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestApplyCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyCredentials(Credentials{GoogleAPIKey: "env-key", GoogleTLD: "com.au"})
	if cfg.Cloud.APIKey != "env-key" || cfg.Cloud.TLD != "com.au" {
		t.Errorf("credentials not applied: %+v", cfg.Cloud)
	}

	cfg = DefaultConfig()
	cfg.Cloud.APIKey = "file-key"
	cfg.ApplyCredentials(Credentials{GoogleAPIKey: "env-key"})
	if cfg.Cloud.APIKey != "file-key" || cfg.Cloud.TLD != "com" {
		t.Errorf("config file values should win: %+v", cfg.Cloud)
	}
}

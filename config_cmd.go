package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Default backend: offline (espeak-ng) or cloud (Google)
backend: "offline"
# Default voice id (empty selects the engine default)
voice: ""
# Language code, e.g. en or en-GB
language: "en"
# Speaking rate in words per minute
rate: 150
# Volume from 0.0 to 1.0
volume: 1.0

# Offline engine
offline:
  # binary: "espeak-ng"
  pitch: 50
  timeout: "30s"

# Cloud engine. Without an api_key gtts-cli is used instead of the REST API.
# The key can also be set with GOOGLE_TTS_API_KEY or in a .env file.
cloud:
  # api_key: "your-api-key-here"
  tld: "com"
  timeout: "30s"
  requests_per_minute: 50
  max_chars: 4500

# Playback
audio:
  # auto, oto or command
  player: "auto"
  sample_rate: 44100
  wav_command: "aplay -q -"
  mp3_command: "mpg123 -q -"
  ffmpeg: "ffmpeg"

# Web interface (pitts serve)
server:
  addr: "0.0.0.0:5000"
  # /speak requests per second per client
  rate_limit: 2
  burst: 5
  max_artifacts: 100
  max_artifact_mb: 64
  artifact_ttl: "1h"
  # artifact_dir: "~/.cache/pitts/artifacts"

# Cloud synthesis cache
cache:
  enabled: true
  # dir: "~/.cache/pitts/audio"
  max_size_mb: 100
  ttl: "168h"

log:
  level: "info"
  # file: "~/.cache/pitts/pitts.log"
  # events: "~/.local/share/pitts/events.jsonl"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the pitts config file",
	Long:    paragraph(fmt.Sprintf("\n%s the pitts config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("pitts config\npitts config --config path/to/pitts.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("pitts", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/audio"
	"github.com/dgnsrekt/pitts/internal/cache"
	"github.com/dgnsrekt/pitts/internal/config"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dgnsrekt/pitts/internal/tts/engines"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
)

// runtime wires configuration to engines, sinks and the service.
type runtime struct {
	cfg     config.Config
	service *tts.Service
	output  *audio.Output
	cache   *cache.Manager
	cloud   *engines.CloudEngine
}

// newRuntime builds the service. Without a player the runtime can only
// save audio, which is all the web server needs.
func newRuntime(cfg config.Config, mode string, withPlayer bool, extra ...tts.ServiceOption) (*runtime, error) {
	rt := &runtime{cfg: cfg}

	if cfg.Cache.Enabled {
		m, err := openSynthesisCache(cfg.Cache)
		if err != nil {
			log.Warn("Synthesis cache disabled", "err", err)
		} else {
			rt.cache = m
		}
	}

	offline := engines.NewEspeakEngine(engines.EspeakConfig{
		Binary:  cfg.Offline.Binary,
		Pitch:   cfg.Offline.Pitch,
		Timeout: cfg.Offline.Timeout,
	})

	cloudCfg := engines.CloudConfig{
		APIKey:            cfg.Cloud.APIKey,
		Endpoint:          cfg.Cloud.Endpoint,
		TLD:               cfg.Cloud.TLD,
		Timeout:           cfg.Cloud.Timeout,
		RequestsPerMinute: cfg.Cloud.RequestsPerMinute,
		MaxChars:          cfg.Cloud.MaxChars,
	}
	if rt.cache != nil {
		cloudCfg.Cache = rt.cache
	}
	rt.cloud = engines.NewCloudEngine(cloudCfg)

	for _, e := range []tts.Engine{offline, rt.cloud} {
		if err := e.Available(); err != nil {
			log.Warn("Backend unavailable", "backend", e.Backend(), "err", err)
		}
	}

	transcoder := audio.NewTranscoder(cfg.Audio.FFmpeg)
	var player audio.Player
	if withPlayer {
		p, err := audio.NewPlayer(audio.PlayerConfig{
			Kind:       cfg.Audio.Player,
			SampleRate: cfg.Audio.SampleRate,
			WAVCommand: cfg.Audio.WAVCommand,
			MP3Command: cfg.Audio.MP3Command,
			FFmpeg:     cfg.Audio.FFmpeg,
		})
		if err != nil {
			log.Warn("No audio player available, playback disabled", "err", err)
		} else {
			player = p
			log.Debug("Audio player ready", "player", p.Name())
		}
	}
	rt.output = audio.NewOutput(player, transcoder, cfg.Audio.SampleRate)

	opts := []tts.ServiceOption{
		tts.WithSink(rt.output),
		tts.WithDefaults(cfg.Defaults()),
	}
	if cfg.Log.Events != "" {
		path, err := homedir.Expand(cfg.Log.Events)
		if err != nil {
			return nil, fmt.Errorf("unable to expand event log path: %w", err)
		}
		events, err := tts.OpenEventLog(path)
		if err != nil {
			return nil, err
		}
		events.Init(mode, cfg.Defaults().Backend)
		opts = append(opts, tts.WithEventLog(events))
	}

	opts = append(opts, extra...)
	rt.service = tts.NewService(tts.NewDispatcher(offline, rt.cloud), opts...)
	log.Debug("Runtime ready", "mode", mode, "backend", cfg.Backend, "cloud_api", rt.cloud.UsesAPI(),
		"cache", rt.cache != nil)
	return rt, nil
}

func openSynthesisCache(c config.CacheConfig) (*cache.Manager, error) {
	dir := c.Dir
	if dir == "" {
		base, err := gap.NewScope(gap.User, "pitts").CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "audio")
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}

	return cache.NewManager(cache.Config{
		MemoryBytes:      16 * 1024 * 1024,
		Dir:              dir,
		DiskBytes:        int64(c.MaxSizeMB) * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              c.TTL,
		CleanupInterval:  10 * time.Minute,
	})
}

func (rt *runtime) Close() error {
	err := errors.Join(rt.service.Close(), rt.output.Close())
	if rt.cache != nil {
		err = errors.Join(err, rt.cache.Close())
	}
	return err
}

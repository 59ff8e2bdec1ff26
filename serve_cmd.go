package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/artifact"
	"github.com/dgnsrekt/pitts/internal/config"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dgnsrekt/pitts/internal/web"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the web interface",
	Long:    paragraph(fmt.Sprintf("\n%s a browser interface and JSON API for speech synthesis. Changes to the config file update the request defaults without a restart.", keyword("Serve"))),
	Example: paragraph("pitts serve\npitts serve --addr 127.0.0.1:8080"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		dir, err := homedir.Expand(cfg.Server.ArtifactDir)
		if err != nil {
			return fmt.Errorf("unable to expand artifact dir: %w", err)
		}
		store, err := artifact.NewStore(artifact.Config{
			MaxEntries: cfg.Server.MaxArtifacts,
			MaxBytes:   int64(cfg.Server.MaxArtifactMB) * 1024 * 1024,
			TTL:        cfg.Server.ArtifactTTL,
			Dir:        dir,
		})
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		rt, err := newRuntime(cfg, "web", false, tts.WithArtifactStore(store))
		if err != nil {
			return err
		}
		defer rt.Close() //nolint:errcheck

		s := web.NewServer(rt.service, store)
		s.Addr = cfg.Server.Addr
		s.RateLimit = cfg.Server.RateLimit
		s.Burst = cfg.Server.Burst

		watchConfig(rt)

		if err := s.Open(); err != nil {
			return fmt.Errorf("unable to listen on %s: %w", cfg.Server.Addr, err)
		}
		u := s.URL()
		fmt.Fprintf(cmd.OutOrStdout(), "Web interface: %s\n", keyword(u.String())) //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("Shutting down")
		return s.Close()
	},
}

// watchConfig reloads request defaults when the config file changes.
func watchConfig(rt *runtime) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		c, err := config.Load(viper.GetViper())
		if err != nil {
			log.Warn("Ignoring invalid configuration", "path", e.Name, "err", err)
			return
		}
		rt.service.SetDefaults(c.Defaults())
		log.Info("Configuration reloaded", "path", e.Name, "backend", c.Backend, "rate", c.Rate)
	})
	viper.WatchConfig()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, 0.0.0.0:5000)")
}

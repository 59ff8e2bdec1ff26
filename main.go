// Package main provides the entry point for the pitts CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/config"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dgnsrekt/pitts/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	text        string
	inputFile   string
	outputFile  string
	interactive bool
	listVoices  bool
	debug       bool

	// cfg is loaded in PersistentPreRunE.
	cfg       config.Config
	logCloser = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "pitts [TEXT]",
		Short: "Text to speech for the Raspberry Pi",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text with an %s or %s voice, play it or save it.", keyword("offline"), keyword("cloud")),
		),
		Example: paragraph(`pitts "Hello world"
pitts --text "Dr. Smith owes $5" --backend cloud --language en-GB
pitts --file notes.md --output notes.mp3
echo "Hello" | pitts
pitts --interactive`),
		SilenceErrors:     true,
		SilenceUsage:      true,
		TraverseChildren:  true,
		PersistentPreRunE: loadConfig,
		RunE:              execute,
	}
)

// loadConfig reads configuration and sets up logging for every command.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			if cmd.Flags().Changed("config") {
				return fmt.Errorf("unable to read config file: %w", err)
			}
			log.Debug("No configuration file", "path", configFile, "err", err)
		}
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	c.ApplyCredentials(creds)
	cfg = c

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	closer, err := setupLog(level, cfg.Log.File, cmd.Name() == serveCmd.Name())
	if err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}
	logCloser = closer
	log.Debug("Configuration loaded", "file", viper.ConfigFileUsed(), "backend", cfg.Backend)
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readInput returns the text to speak and whether any input was given.
func readInput(cmd *cobra.Command, args []string, stdin io.Reader) (string, bool, error) {
	switch {
	case inputFile != "":
		var b []byte
		var err error
		if inputFile == "-" {
			b, err = io.ReadAll(stdin)
		} else {
			b, err = os.ReadFile(inputFile)
		}
		if err != nil {
			return "", true, fmt.Errorf("unable to read file: %w", err)
		}
		s := string(b)
		if tts.IsMarkdownFile(inputFile) {
			s = tts.StripMarkdown(s)
		}
		log.Debug("Loaded text", "file", inputFile, "bytes", len(b))
		return s, true, nil
	case cmd.Flags().Changed("text"):
		return text, true, nil
	case len(args) > 0:
		return strings.Join(args, " "), true, nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", false, err
	} else if yes {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", true, fmt.Errorf("unable to read from stdin: %w", err)
		}
		return string(b), true, nil
	}
	return "", false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listVoices {
		rt, err := newRuntime(cfg, "voices", false)
		if err != nil {
			return err
		}
		defer rt.Close() //nolint:errcheck
		return printVoices(ctx, cmd.OutOrStdout(), rt.service, viper.GetString("backend"), viper.GetString("language"))
	}

	if interactive {
		return runInteractive(ctx)
	}

	input, ok, err := readInput(cmd, args, os.Stdin)
	if err != nil {
		return err
	}
	if !ok {
		return cmd.Help()
	}

	rt, err := newRuntime(cfg, "cli", outputFile == "")
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	return speak(ctx, cmd.OutOrStdout(), rt.service, cmd, input)
}

// speak runs a single request and reports the outcome.
func speak(ctx context.Context, w io.Writer, svc *tts.Service, cmd *cobra.Command, input string) error {
	req := tts.SpeechRequest{
		Text: input,
	}
	if cmd.Flags().Changed("backend") {
		req.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("voice") {
		req.VoiceID, _ = cmd.Flags().GetString("voice")
	}
	if cmd.Flags().Changed("language") {
		req.Language, _ = cmd.Flags().GetString("language")
	}
	if cmd.Flags().Changed("rate") {
		req.Rate, _ = cmd.Flags().GetInt("rate")
	}
	if cmd.Flags().Changed("volume") {
		v, _ := cmd.Flags().GetFloat64("volume")
		req.Volume = &v
	}

	// Invalid requests fall through to Speak, which records the error.
	if backend, _, err := svc.Resolve(req); err == nil {
		fmt.Fprintln(w, faint(fmt.Sprintf("Converting text to speech using %s...", backend.Description()))) //nolint:errcheck
	}

	var opts []tts.SpeakOption
	if outputFile != "" {
		opts = append(opts, tts.SaveTo(outputFile))
	} else {
		opts = append(opts, tts.Play())
	}

	res, err := svc.Speak(ctx, req, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Conversion completed in %.2f seconds\n", res.Artifact.Elapsed.Seconds()) //nolint:errcheck
	if res.Artifact.Path != "" {
		fmt.Fprintf(w, "Audio saved to: %s\n", keyword(res.Artifact.Path)) //nolint:errcheck
	}
	return nil
}

func runInteractive(ctx context.Context) error {
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	rt, err := newRuntime(cfg, "interactive", true)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	return ui.Run(ctx, ui.NewSession(rt.service), uiCfg)
}

func main() {
	err := rootCmd.Execute()
	_ = logCloser()
	if err != nil {
		fmt.Fprintln(os.Stderr, failure("Error: "+err.Error())) //nolint:errcheck
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "speech backend: offline or cloud")
	rootCmd.PersistentFlags().StringP("language", "l", "", "language code, e.g. en or en-GB")

	rootCmd.Flags().StringVarP(&text, "text", "t", "", "text to convert to speech")
	rootCmd.Flags().StringVarP(&inputFile, "file", "f", "", "text or markdown file to convert to speech (- for stdin)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "save audio to this file instead of playing it")
	rootCmd.Flags().StringP("voice", "v", "", "voice id (see --list-voices)")
	rootCmd.Flags().IntP("rate", "r", 0, "speaking rate in words per minute")
	rootCmd.Flags().Float64("volume", 0, "volume from 0.0 to 1.0")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run in interactive mode")
	rootCmd.Flags().BoolVar(&listVoices, "list-voices", false, "list available voices and exit")
	rootCmd.MarkFlagsMutuallyExclusive("text", "file")

	// Config bindings
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("language", rootCmd.PersistentFlags().Lookup("language"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))

	rootCmd.AddCommand(configCmd, serveCmd, doctorCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "pitts")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "pitts")}, dirs...)
	}

	if c := os.Getenv("PITTS_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("pitts")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("pitts")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "pitts.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

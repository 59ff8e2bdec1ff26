package ui

// Config contains interactive-mode configuration.
type Config struct {
	GlamourStyle string `env:"GLAMOUR_STYLE" envDefault:"auto"`
	Width        uint   `env:"PITTS_WIDTH"`

	// LineMode forces the plain line-oriented prompt even on a terminal.
	LineMode bool `env:"PITTS_LINE_MODE"`

	// For debugging the UI
	GlamourEnabled bool `env:"PITTS_ENABLE_GLAMOUR" envDefault:"true"`
}

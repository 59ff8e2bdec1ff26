package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
)

// resolveStyle turns "auto" into a concrete glamour style.
func resolveStyle(style string) string {
	if style == "" || style == styles.AutoStyle {
		if te.HasDarkBackground() {
			return styles.DarkStyle
		}
		return styles.LightStyle
	}
	return style
}

type renderer struct {
	cfg Config
}

func newRenderer(cfg Config) *renderer {
	cfg.GlamourStyle = resolveStyle(cfg.GlamourStyle)
	return &renderer{cfg: cfg}
}

// reply formats a reply for display at width.
func (r *renderer) reply(reply Reply, width int) string {
	if !reply.Markdown || !r.cfg.GlamourEnabled {
		return reply.Output
	}
	out, err := r.markdown(reply.Output, width)
	if err != nil {
		return reply.Output
	}
	return out
}

func (r *renderer) markdown(md string, width int) (string, error) {
	if r.cfg.Width > 0 && (width == 0 || int(r.cfg.Width) < width) { //nolint:gosec
		width = int(r.cfg.Width) //nolint:gosec
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.cfg.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}

func (r *renderer) err(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/muesli/reflow/truncate"
)

// speechState is what the prompt is currently doing.
type speechState int

const (
	stateIdle speechState = iota
	stateSpeaking
	stateError
)

// statusLine renders the bar between the transcript and the input.
func statusLine(state speechState, spinner string, d tts.Defaults, savePath string, width int) string {
	var icon string
	var color lipgloss.Color

	switch state {
	case stateSpeaking:
		icon = spinner
		color = lipgloss.Color("#00AAFF")
	case stateError:
		icon = "✗"
		color = lipgloss.Color("#FF0000")
	default:
		icon = "■"
		color = lipgloss.Color("#888888")
	}

	settings := fmt.Sprintf("%s · %s · %d wpm · vol %.1f", d.Backend, d.Language, d.Rate, d.Volume)
	if d.Voice != "" {
		settings += " · " + d.Voice
	}
	if savePath != "" {
		settings += " · save → " + savePath
	}

	status := lipgloss.NewStyle().Foreground(color).Render(icon) + " " + dimStyle.Render(settings)
	if width > 0 {
		status = truncate.StringWithTail(status, uint(width), "…") //nolint:gosec
	}
	return status
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/muesli/reflow/padding"
)

type voiceLister interface {
	Voices(ctx context.Context, backend, language string) ([]tts.Voice, error)
}

var voiceIDStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))

func printVoices(ctx context.Context, w io.Writer, svc voiceLister, backend, language string) error {
	voices, err := svc.Voices(ctx, backend, language)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Available voices (%d):\n", len(voices)) //nolint:errcheck
	width := 0
	for _, v := range voices {
		width = max(width, len(v.ID))
	}
	for i, v := range voices {
		line := fmt.Sprintf("%3d. %s %s", i+1, voiceIDStyle.Render(padding.String(v.ID, uint(width))), v.Name) //nolint:gosec
		var extra []string
		if v.Language != "" {
			extra = append(extra, v.Language)
		}
		if v.Gender != "" {
			extra = append(extra, strings.ToLower(v.Gender))
		}
		if len(extra) > 0 {
			line += faint(" (" + strings.Join(extra, ", ") + ")")
		}
		fmt.Fprintln(w, line) //nolint:errcheck
	}
	return nil
}

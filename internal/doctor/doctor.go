// Package doctor checks the external programs and audio hardware pitts
// depends on and renders a report.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Status represents the status of a dependency.
type Status struct {
	Name         string
	Group        string
	Required     bool
	Installed    bool
	Version      string
	Path         string
	Instructions string
}

// Checker checks a single dependency.
type Checker interface {
	Check(ctx context.Context) Status
}

// lookPath and output are replaced in tests.
var (
	lookPath = exec.LookPath
	output   = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
	}
)

// BinaryChecker finds the first available candidate executable and reads
// its version.
type BinaryChecker struct {
	Name         string
	Group        string
	Candidates   []string
	VersionArgs  []string
	Required     bool
	Instructions string
}

// Check implements Checker.
func (c BinaryChecker) Check(ctx context.Context) Status {
	status := Status{Name: c.Name, Group: c.Group, Required: c.Required}

	candidates := c.Candidates
	if len(candidates) == 0 {
		candidates = []string{c.Name}
	}
	for _, candidate := range candidates {
		path, err := lookPath(candidate)
		if err != nil {
			continue
		}
		status.Installed = true
		status.Path = path
		if len(c.VersionArgs) > 0 {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			out, err := output(ctx, path, c.VersionArgs...)
			cancel()
			if err == nil {
				status.Version = firstLine(string(out))
			}
		}
		return status
	}

	status.Instructions = c.Instructions
	return status
}

// DefaultCheckers returns the checks for a pitts installation. The cloud
// engine needs gtts-cli only when no API key is configured.
func DefaultCheckers(cloudAPIKey bool) []Checker {
	return []Checker{
		BinaryChecker{
			Name:         "espeak-ng",
			Group:        "Offline engine",
			Candidates:   []string{"espeak-ng", "espeak"},
			VersionArgs:  []string{"--version"},
			Required:     true,
			Instructions: "Install with: sudo apt install espeak-ng",
		},
		BinaryChecker{
			Name:         "gtts-cli",
			Group:        "Cloud engine",
			VersionArgs:  []string{"--version"},
			Required:     false,
			Instructions: gttsInstructions(cloudAPIKey),
		},
		BinaryChecker{
			Name:         "ffmpeg",
			Group:        "Audio",
			VersionArgs:  []string{"-version"},
			Instructions: "Needed to play and convert MP3. Install with: sudo apt install ffmpeg",
		},
		BinaryChecker{
			Name:         "aplay",
			Group:        "Audio",
			Instructions: "Install with: sudo apt install alsa-utils",
		},
		BinaryChecker{
			Name:         "mpg123",
			Group:        "Audio",
			Candidates:   []string{"mpg123", "ffplay"},
			Instructions: "Install with: sudo apt install mpg123",
		},
	}
}

func gttsInstructions(apiKey bool) string {
	if apiKey {
		return "Not needed: GOOGLE_TTS_API_KEY is set"
	}
	return "Install with: pip install gtts, or set GOOGLE_TTS_API_KEY"
}

// Report is the result of a doctor run.
type Report struct {
	Platform *Platform
	Results  []Status
}

// Run executes every checker and detects the platform.
func Run(ctx context.Context, checkers ...Checker) *Report {
	report := &Report{Platform: DetectPlatform()}
	for _, c := range checkers {
		status := c.Check(ctx)
		report.Results = append(report.Results, status)
		if status.Installed {
			log.Debug("Dependency found", "name", status.Name, "version", status.Version, "path", status.Path)
		}
	}
	return report
}

// Err reports missing required dependencies.
func (r *Report) Err() error {
	var missing []string
	for _, s := range r.Results {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
	}
	if r.Platform != nil && !r.Platform.HasAudioDevice {
		return errors.New("no audio output device found")
	}
	return nil
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	groupStyle     = lipgloss.NewStyle().Bold(true)
	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Render formats the report for a terminal.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pitts doctor"))
	b.WriteString("\n\n")

	if p := r.Platform; p != nil {
		b.WriteString(groupStyle.Render("System"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s/%s\n", p.Model, p.OS, p.Arch)
		fmt.Fprintf(&b, "  audio: %s", p.AudioSubsystem)
		if p.HasAudioDevice {
			b.WriteString(installedStyle.Render(" (device found)"))
		} else {
			b.WriteString(missingStyle.Render(" (no device)"))
		}
		b.WriteString("\n")
	}

	group := ""
	for _, s := range r.Results {
		if s.Group != group {
			group = s.Group
			b.WriteString("\n")
			b.WriteString(groupStyle.Render(group))
			b.WriteString("\n")
		}

		switch {
		case s.Installed:
			b.WriteString(installedStyle.Render("  ✓ " + s.Name + ": "))
			b.WriteString(strings.TrimSpace(s.Path + " " + s.Version))
		case s.Required:
			b.WriteString(missingStyle.Render("  ✗ " + s.Name + ": "))
			b.WriteString("not installed")
		default:
			b.WriteString(optionalStyle.Render("  ○ " + s.Name + ": "))
			b.WriteString("not installed (optional)")
		}
		b.WriteString("\n")
		if !s.Installed && s.Instructions != "" {
			b.WriteString(hintStyle.Render("    " + s.Instructions))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

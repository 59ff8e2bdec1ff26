package doctor

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AudioSubsystem names the sound server in use.
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// Platform describes the host.
type Platform struct {
	OS             string
	Arch           string
	Model          string
	IsRaspberryPi  bool
	AudioSubsystem AudioSubsystem
	HasAudioDevice bool
}

// root prefixes procfs, sysfs and /dev paths; tests point it at a temp dir.
var root = "/"

// DetectPlatform inspects the host.
func DetectPlatform() *Platform {
	p := &Platform{
		OS:    runtime.GOOS,
		Arch:  runtime.GOARCH,
		Model: "Unknown host",
	}

	if model := readModel(); model != "" {
		p.Model = model
		p.IsRaspberryPi = strings.Contains(model, "Raspberry Pi")
	}

	switch runtime.GOOS {
	case "linux":
		p.AudioSubsystem = detectLinuxAudio()
		p.HasAudioDevice = hasLinuxAudioDevice()
	case "darwin":
		p.AudioSubsystem = AudioSubsystemCoreAudio
		p.HasAudioDevice = true
	default:
		p.AudioSubsystem = AudioSubsystemNone
	}

	log.Debug("Platform detected", "model", p.Model, "audio", p.AudioSubsystem, "has_device", p.HasAudioDevice)
	return p
}

func readModel() string {
	data, err := os.ReadFile(filepath.Join(root, "proc/device-tree/model"))
	if err != nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(string(data)), "\x00")
}

func detectLinuxAudio() AudioSubsystem {
	if _, err := lookPath("pactl"); err == nil {
		if out, err := exec.Command("pactl", "info").Output(); err == nil && strings.Contains(string(out), "Server Name") {
			return AudioSubsystemPulseAudio
		}
	}
	if _, err := os.Stat(filepath.Join(root, "proc/asound")); err == nil {
		return AudioSubsystemALSA
	}
	if _, err := lookPath("aplay"); err == nil {
		return AudioSubsystemALSA
	}
	return AudioSubsystemNone
}

func hasLinuxAudioDevice() bool {
	if entries, err := os.ReadDir(filepath.Join(root, "dev/snd")); err == nil {
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "pcm") {
				return true
			}
		}
	}

	content, err := os.ReadFile(filepath.Join(root, "proc/asound/cards"))
	if err == nil && len(content) > 0 && !strings.Contains(string(content), "no soundcards") {
		return true
	}
	return false
}

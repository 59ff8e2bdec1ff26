package web

import (
	"bufio"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/pitts/internal/artifact"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/dustin/go-humanize"
)

// SystemInfo is the /api/system payload.
type SystemInfo struct {
	Hostname        string          `json:"hostname"`
	Arch            string          `json:"arch"`
	CPUTemp         *float64        `json:"cpu_temp"`
	MemoryTotal     string          `json:"memory_total,omitempty"`
	MemoryAvailable string          `json:"memory_available,omitempty"`
	MemoryPercent   float64         `json:"memory_percent"`
	Goroutines      int             `json:"goroutines"`
	Uptime          string          `json:"uptime"`
	Artifacts       int             `json:"artifacts"`
	ArtifactStats   *artifact.Stats `json:"artifact_stats,omitempty"`
	Backends        []string        `json:"backends"`
	Defaults        tts.Defaults    `json:"defaults"`
}

// SystemReader reads host statistics from procfs and sysfs.
type SystemReader struct {
	ThermalPath string
	MeminfoPath string
}

// NewSystemReader returns a reader for the standard Linux paths.
func NewSystemReader() *SystemReader {
	return &SystemReader{
		ThermalPath: "/sys/class/thermal/thermal_zone0/temp",
		MeminfoPath: "/proc/meminfo",
	}
}

// Read collects what is available; missing files leave fields empty.
func (s *SystemReader) Read() SystemInfo {
	info := SystemInfo{
		Arch:       runtime.GOOS + "/" + runtime.GOARCH,
		Goroutines: runtime.NumGoroutine(),
	}
	info.Hostname, _ = os.Hostname()

	if s == nil {
		return info
	}
	if t, ok := readCPUTemp(s.ThermalPath); ok {
		info.CPUTemp = &t
	}
	if total, avail, ok := readMeminfo(s.MeminfoPath); ok {
		info.MemoryTotal = humanize.IBytes(total)
		info.MemoryAvailable = humanize.IBytes(avail)
		if total > 0 {
			info.MemoryPercent = math.Round(float64(total-avail)/float64(total)*1000) / 10
		}
	}
	return info
}

// readCPUTemp reads millidegrees Celsius and returns degrees rounded to
// one decimal.
func readCPUTemp(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return math.Round(float64(milli)/100) / 10, true
}

// readMeminfo returns MemTotal and MemAvailable in bytes.
func readMeminfo(path string) (total, available uint64, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = kb * 1024
		case "MemAvailable:":
			available = kb * 1024
		}
	}
	return total, available, total > 0
}

func formatUptime(start time.Time) string {
	if start.IsZero() {
		return ""
	}
	return strings.TrimSpace(humanize.RelTime(start, time.Now(), "", ""))
}

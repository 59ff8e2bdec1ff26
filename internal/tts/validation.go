package tts

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var backendAliases = map[string]Backend{
	"offline":   BackendOffline,
	"espeak":    BackendOffline,
	"espeak-ng": BackendOffline,
	"pyttsx3":   BackendOffline,
	"local":     BackendOffline,
	"cloud":     BackendCloud,
	"gtts":      BackendCloud,
	"google":    BackendCloud,
	"online":    BackendCloud,
}

// ParseBackend normalizes a backend identifier, accepting the legacy
// engine names as aliases.
func ParseBackend(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if b, ok := backendAliases[key]; ok {
		return b, nil
	}
	return "", UnsupportedBackendError(name)
}

// ResolveBackend returns the backend named by the CLI argument, falling back
// to the configured default.
func ResolveBackend(cliArg string, fallback Backend) (Backend, error) {
	if strings.TrimSpace(cliArg) == "" {
		if fallback == "" {
			return BackendOffline, nil
		}
		return ParseBackend(string(fallback))
	}
	return ParseBackend(cliArg)
}

// ValidateVolume checks the volume is within [0,1].
func ValidateVolume(v float64) error {
	if v < 0 || v > 1 {
		return NewSpeechError(ErrorCodeInvalidInput,
			fmt.Sprintf("volume must be between 0.0 and 1.0, got %.2f", v), nil).
			WithContext("volume", v)
	}
	return nil
}

// NormalizeLanguage canonicalizes a BCP 47 tag ("EN_us" becomes "en-US").
// Unparseable input is returned trimmed so engines can decide what to do
// with it.
func NormalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	return tag.String()
}

// BaseLanguage returns the primary language subtag ("en-GB" becomes "en").
func BaseLanguage(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	return base.String()
}

// RegionalLanguage returns a tag with a region, guessing the most likely
// region when none is given ("en" becomes "en-US").
func RegionalLanguage(code string) string {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	return base.String() + "-" + region.String()
}

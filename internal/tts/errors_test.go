package tts

import (
	"errors"
	"fmt"
	"testing"
)

func TestSpeechError(t *testing.T) {
	tests := []struct {
		name      string
		err       *SpeechError
		sentinel  error
		retryable bool
	}{
		{"empty input", EmptyInputError(), ErrEmptyInput, false},
		{"unsupported", UnsupportedBackendError("festival"), ErrUnsupportedBackend, false},
		{"network", NetworkError(errBoom), ErrNetwork, true},
		{"synthesis", SynthesisFailure(BackendOffline, errBoom), ErrSynthesisFailed, false},
		{"playback", NewSpeechError(ErrorCodePlayback, "busy", nil), ErrPlaybackFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			if tt.sentinel != nil && !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if errors.Is(wrapped, ErrArtifactNotFound) {
				t.Error("matched an unrelated sentinel")
			}
			if got := tt.err.IsRetryable(); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if ErrorCodeOf(wrapped) != tt.err.Code {
				t.Errorf("ErrorCodeOf() = %q, want %q", ErrorCodeOf(wrapped), tt.err.Code)
			}
		})
	}
}

func TestSpeechError_MessageAndContext(t *testing.T) {
	err := SynthesisFailure(BackendCloud, errBoom)
	if err.Error() != "cloud synthesis failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, errBoom) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Context["backend"] != "cloud" {
		t.Errorf("Context = %v", err.Context)
	}
	if ErrorCodeOf(errBoom) != "" {
		t.Error("plain errors have no code")
	}
}

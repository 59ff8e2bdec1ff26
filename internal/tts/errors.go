package tts

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match them with errors.Is.
var (
	// ErrEmptyInput indicates the request text was empty after trimming.
	ErrEmptyInput = errors.New("no text provided")

	// ErrUnsupportedBackend indicates an unknown or unregistered backend.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrNetwork indicates the cloud engine could not reach its service.
	ErrNetwork = errors.New("network unavailable")

	// ErrSynthesisFailed indicates the engine failed to produce audio.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrInvalidInput indicates a request parameter is out of range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArtifactNotFound indicates an unknown or expired artifact id.
	ErrArtifactNotFound = errors.New("audio file not found")

	// ErrInvalidArtifactID indicates a malformed artifact id.
	ErrInvalidArtifactID = errors.New("invalid audio ID")

	// ErrPlaybackFailed indicates the audio sink could not play the artifact.
	ErrPlaybackFailed = errors.New("playback failed")
)

// ErrorCode identifies specific error types.
type ErrorCode string

const (
	ErrorCodeEmptyInput         ErrorCode = "EMPTY_INPUT"
	ErrorCodeUnsupportedBackend ErrorCode = "UNSUPPORTED_BACKEND"
	ErrorCodeNetwork            ErrorCode = "NETWORK"
	ErrorCodeSynthesis          ErrorCode = "SYNTHESIS_FAILURE"
	ErrorCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodePlayback           ErrorCode = "PLAYBACK_FAILURE"
)

var codeSentinels = map[ErrorCode]error{
	ErrorCodeEmptyInput:         ErrEmptyInput,
	ErrorCodeUnsupportedBackend: ErrUnsupportedBackend,
	ErrorCodeNetwork:            ErrNetwork,
	ErrorCodeSynthesis:          ErrSynthesisFailed,
	ErrorCodeInvalidInput:       ErrInvalidInput,
	ErrorCodeNotFound:           ErrArtifactNotFound,
	ErrorCodePlayback:           ErrPlaybackFailed,
}

// SpeechError represents a request failure with additional context.
type SpeechError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// NewSpeechError creates a new error with the given code.
func NewSpeechError(code ErrorCode, message string, cause error) *SpeechError {
	return &SpeechError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface.
func (e *SpeechError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel associated with the error code.
func (e *SpeechError) Is(target error) bool {
	if sentinel, ok := codeSentinels[e.Code]; ok {
		return sentinel == target
	}
	return false
}

// WithContext adds context to the error.
func (e *SpeechError) WithContext(key string, value interface{}) *SpeechError {
	e.Context[key] = value
	return e
}

// IsRetryable reports whether the caller may try the same request again.
// Nothing is retried automatically.
func (e *SpeechError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeNetwork:
		return true
	default:
		return false
	}
}

// EmptyInputError returns the error for a request with no text.
func EmptyInputError() *SpeechError {
	return NewSpeechError(ErrorCodeEmptyInput, "No text provided", nil)
}

// UnsupportedBackendError returns the error for an unknown backend identifier.
func UnsupportedBackendError(name string) *SpeechError {
	return NewSpeechError(ErrorCodeUnsupportedBackend,
		fmt.Sprintf("unsupported backend %q (use offline or cloud)", name), nil).
		WithContext("backend", name)
}

// NetworkError wraps a transport failure of the cloud engine.
func NetworkError(cause error) *SpeechError {
	return NewSpeechError(ErrorCodeNetwork, "cloud TTS unreachable, check the network connection", cause)
}

// SynthesisFailure wraps a failure reported by an engine.
func SynthesisFailure(backend Backend, cause error) *SpeechError {
	return NewSpeechError(ErrorCodeSynthesis, fmt.Sprintf("%s synthesis failed", backend), cause).
		WithContext("backend", string(backend))
}

// ErrorCodeOf returns the code carried by err, or "" when err is not a SpeechError.
func ErrorCodeOf(err error) ErrorCode {
	var se *SpeechError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/tts"
)

// ErrInvalidJSON is returned for request bodies that cannot be decoded.
var ErrInvalidJSON = errors.New("invalid JSON body")

// errInternal replaces errors that are not whitelisted.
var errInternal = errors.New("internal error")

// errorMap is a whitelist that maps errors to status codes. Errors not
// listed are masked as internal errors.
var errorMap = []struct {
	err     error
	code    int
	message string
}{
	{tts.ErrInvalidArtifactID, http.StatusBadRequest, "Invalid audio ID"},
	{tts.ErrArtifactNotFound, http.StatusNotFound, "Audio file not found"},
	{ErrInvalidJSON, http.StatusBadRequest, "Invalid JSON body"},
	{tts.ErrUnsupportedBackend, http.StatusBadRequest, ""},
	{tts.ErrInvalidInput, http.StatusBadRequest, ""},
	{tts.ErrEmptyInput, http.StatusBadRequest, ""},
	{tts.ErrNetwork, http.StatusBadGateway, ""},
	{tts.ErrSynthesisFailed, http.StatusBadGateway, ""},
}

func lookupError(err error) (int, string, bool) {
	for _, e := range errorMap {
		if errors.Is(err, e.err) {
			msg := e.message
			if msg == "" {
				msg = err.Error()
			}
			return e.code, msg, true
		}
	}
	return http.StatusInternalServerError, errInternal.Error(), false
}

// Error writes an error response, as JSON when the client accepts it and
// as plain text otherwise.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code, msg, known := lookupError(err)

	if known {
		log.Debug("HTTP error", "status", code, "path", r.URL.Path, "err", err)
	} else {
		log.Error("HTTP error", "status", code, "path", r.URL.Path, "err", err)
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, code, &errorResponse{Err: msg})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

// speakErrorMessage returns the user-facing message for a failed /speak.
func speakErrorMessage(err error) string {
	if errors.Is(err, tts.ErrEmptyInput) {
		return "Please enter some text to convert"
	}
	var se *tts.SpeechError
	if errors.As(err, &se) {
		return se.Error()
	}
	return errInternal.Error()
}

type errorResponse struct {
	Err string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

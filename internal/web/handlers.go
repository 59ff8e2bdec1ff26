package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"

	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds /speak request bodies.
const maxBodyBytes = 1 << 20

type speakRequest struct {
	Text     string   `json:"text"`
	Backend  string   `json:"backend"`
	Language string   `json:"language"`
	VoiceID  string   `json:"voice_id"`
	Rate     *int     `json:"rate"`
	Volume   *float64 `json:"volume"`
}

// speakResponse always carries audio_id and elapsed_time on success; a
// cache hit can round elapsed_time to zero.
type speakResponse struct {
	Success     bool    `json:"success"`
	AudioID     string  `json:"audio_id"`
	ElapsedTime float64 `json:"elapsed_time"`
	Backend     string  `json:"backend,omitempty"`
	Format      string  `json:"format,omitempty"`
	Voice       string  `json:"voice,omitempty"`
	Error       string  `json:"error,omitempty"`
}

type speakFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(staticFS, "static/index.html")
	if err != nil {
		Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSpeak synthesizes the request and stores the audio. Request-level
// failures are reported in the body with a 200 status; only undecodable
// bodies get a 400.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var body speakRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, speakFailure{Error: fmt.Sprintf("%s: %v", ErrInvalidJSON, err)})
		return
	}

	req := tts.SpeechRequest{
		Text:     body.Text,
		Backend:  body.Backend,
		VoiceID:  body.VoiceID,
		Volume:   body.Volume,
		Language: body.Language,
	}
	if body.Rate != nil {
		req.Rate = *body.Rate
	}

	ctx := r.Context()
	if s.SpeakTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.SpeakTimeout)
		defer cancel()
	}

	result, err := s.Service.Speak(ctx, req, tts.Store())
	if err != nil {
		writeJSON(w, http.StatusOK, speakFailure{Error: speakErrorMessage(err)})
		return
	}

	a := result.Artifact
	writeJSON(w, http.StatusOK, speakResponse{
		Success:     true,
		AudioID:     a.ID,
		ElapsedTime: math.Round(a.Elapsed.Seconds()*100) / 100,
		Backend:     string(a.Backend),
		Format:      string(a.Format),
		Voice:       result.Voice,
	})
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	voices, err := s.Service.Voices(r.Context(), q.Get("backend"), q.Get("language"))
	if err != nil {
		Error(w, r, err)
		return
	}
	if voices == nil {
		voices = []tts.Voice{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"voices": voices})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, false)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, true)
}

// serveArtifact writes stored audio with range support so browsers can
// seek.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, attachment bool) {
	a, err := s.Artifacts.Get(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", a.Format.ContentType())
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tts_output%s"`, a.Format.Extension()))
	}
	http.ServeContent(w, r, "", a.CreatedAt, bytes.NewReader(a.Data))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.Service.History()
	if history == nil {
		history = []tts.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	info := s.System.Read()
	info.Uptime = formatUptime(s.started)
	info.Defaults = s.Service.Defaults()
	for _, b := range s.Service.Backends() {
		info.Backends = append(info.Backends, string(b))
	}
	if s.Artifacts != nil {
		stats := s.Artifacts.Stats()
		info.Artifacts = stats.Count
		info.ArtifactStats = &stats
	}
	writeJSON(w, http.StatusOK, info)
}

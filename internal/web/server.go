// Package web serves the browser interface and JSON API for speech
// synthesis.
package web

import (
	"context"
	"embed"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/pitts/internal/artifact"
	"github.com/dgnsrekt/pitts/internal/tts"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFS embed.FS

// SpeechService is the part of tts.Service the server uses.
type SpeechService interface {
	Speak(ctx context.Context, req tts.SpeechRequest, opts ...tts.SpeakOption) (*tts.Result, error)
	Voices(ctx context.Context, backend, language string) ([]tts.Voice, error)
	History() []tts.HistoryEntry
	Defaults() tts.Defaults
	Backends() []tts.Backend
}

// ArtifactSource looks up stored audio by id.
type ArtifactSource interface {
	Get(id string) (*tts.Artifact, error)
	Stats() artifact.Stats
}

// Server represents an HTTP server.
type Server struct {
	ln     net.Listener
	server *http.Server

	Service   SpeechService
	Artifacts ArtifactSource
	System    *SystemReader

	// Server options.
	Addr        string  // bind address
	RateLimit   float64 // /speak requests per second per client
	Burst       int
	Recoverable bool // panic recovery

	// SpeakTimeout bounds a single synthesis request.
	SpeakTimeout time.Duration

	started time.Time
}

// NewServer returns a new instance of Server.
func NewServer(service SpeechService, artifacts ArtifactSource) *Server {
	return &Server{
		Service:      service,
		Artifacts:    artifacts,
		System:       NewSystemReader(),
		Addr:         "0.0.0.0:5000",
		RateLimit:    2,
		Burst:        5,
		Recoverable:  true,
		SpeakTimeout: 2 * time.Minute,
	}
}

// Open opens the listener and starts serving in the background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.started = time.Now()

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server stopped", "err", err)
		}
	}()

	u := s.URL()
	log.Info("Web interface listening", "url", u.String())
	return nil
}

// Close gracefully shuts the server down.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// URL returns a base URL string with the scheme and host.
// This is available after the server has been opened.
func (s *Server) URL() url.URL {
	if s.ln == nil {
		return url.URL{}
	}
	return url.URL{Scheme: "http", Host: s.ln.Addr().String()}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	if s.Recoverable {
		r.Use(chimiddleware.Recoverer)
	}

	limiter := newRateLimiter(s.RateLimit, s.Burst)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/voices", s.handleVoices)
	r.With(limiter.Limit).Post("/speak", s.handleSpeak)
	r.Get("/audio/{id}", s.handleAudio)
	r.Get("/download/{id}", s.handleDownload)
	r.Get("/history", s.handleHistory)
	r.Get("/api/system", s.handleSystem)

	return r
}

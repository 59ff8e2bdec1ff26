package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Service validates, preprocesses and dispatches speech requests and hands
// the result to the configured sink and artifact store.
type Service struct {
	dispatcher *Dispatcher
	sink       Sink
	store      ArtifactStore
	events     *EventLog
	history    *History

	mu       sync.RWMutex
	defaults Defaults
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSink sets the sink used for playback and saving.
func WithSink(s Sink) ServiceOption {
	return func(svc *Service) { svc.sink = s }
}

// WithArtifactStore sets the store used by Store().
func WithArtifactStore(s ArtifactStore) ServiceOption {
	return func(svc *Service) { svc.store = s }
}

// WithEventLog sets the JSONL event log.
func WithEventLog(l *EventLog) ServiceOption {
	return func(svc *Service) { svc.events = l }
}

// WithDefaults sets the request defaults.
func WithDefaults(d Defaults) ServiceOption {
	return func(svc *Service) { svc.defaults = d }
}

// NewService returns a service dispatching through d.
func NewService(d *Dispatcher, opts ...ServiceOption) *Service {
	svc := &Service{
		dispatcher: d,
		history:    NewHistory(HistorySize),
		defaults:   DefaultDefaults(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Result is the outcome of a successful Speak call.
type Result struct {
	Artifact *Artifact
	Voice    string
}

type speakOptions struct {
	play     bool
	savePath string
	store    bool
}

// SpeakOption selects what happens to the artifact.
type SpeakOption func(*speakOptions)

// Play plays the artifact through the sink before returning.
func Play() SpeakOption {
	return func(o *speakOptions) { o.play = true }
}

// SaveTo writes the artifact to path.
func SaveTo(path string) SpeakOption {
	return func(o *speakOptions) { o.savePath = path }
}

// Store keeps the artifact in the artifact store.
func Store() SpeakOption {
	return func(o *speakOptions) { o.store = true }
}

// Defaults returns the current request defaults.
func (s *Service) Defaults() Defaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

// SetDefaults replaces the request defaults.
func (s *Service) SetDefaults(d Defaults) {
	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
}

// History returns the recent requests, newest first.
func (s *Service) History() []HistoryEntry {
	return s.history.Entries()
}

// Backends returns the registered backends.
func (s *Service) Backends() []Backend {
	return s.dispatcher.Backends()
}

// Voices lists voices for backend ("" for the default backend).
func (s *Service) Voices(ctx context.Context, backend, language string) ([]Voice, error) {
	d := s.Defaults()
	b, err := ResolveBackend(backend, d.Backend)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = d.Language
	}
	return s.dispatcher.Voices(ctx, b, NormalizeLanguage(language))
}

// Resolve validates req against the defaults and returns the backend and
// engine parameters. Empty text is rejected before anything else.
func (s *Service) Resolve(req SpeechRequest) (Backend, SynthesisParams, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", SynthesisParams{}, EmptyInputError()
	}

	d := s.Defaults()
	backend, err := ResolveBackend(req.Backend, d.Backend)
	if err != nil {
		return "", SynthesisParams{}, err
	}

	volume := d.Volume
	if req.Volume != nil {
		volume = *req.Volume
	}
	if err := ValidateVolume(volume); err != nil {
		return "", SynthesisParams{}, err
	}

	params := SynthesisParams{
		Text:     Preprocess(text),
		Voice:    firstNonEmpty(req.VoiceID, d.Voice),
		Rate:     req.Rate,
		Volume:   volume,
		Language: NormalizeLanguage(firstNonEmpty(req.Language, d.Language)),
	}
	if params.Rate == 0 {
		params.Rate = d.Rate
	}
	if params.Text == "" {
		return "", SynthesisParams{}, EmptyInputError()
	}
	return backend, params, nil
}

// Speak runs a request end to end: validation, preprocessing, a timed
// dispatch to exactly one engine, then the requested sink operations.
func (s *Service) Speak(ctx context.Context, req SpeechRequest, opts ...SpeakOption) (*Result, error) {
	var o speakOptions
	for _, opt := range opts {
		opt(&o)
	}

	backend, params, err := s.Resolve(req)
	if err != nil {
		s.events.Error(req.Backend, err)
		return nil, err
	}

	start := time.Now()
	audio, err := s.dispatcher.Dispatch(ctx, backend, params)
	elapsed := time.Since(start)
	if err != nil {
		log.Debug("Synthesis failed", "backend", backend, "elapsed", elapsed, "err", err)
		s.events.Error(string(backend), err)
		return nil, err
	}

	artifact := &Artifact{
		ID:        uuid.NewString(),
		Backend:   backend,
		Format:    audio.Format,
		Data:      audio.Data,
		Size:      int64(len(audio.Data)),
		CreatedAt: time.Now(),
		Elapsed:   elapsed,
		Text:      params.Text,
	}
	log.Debug("Synthesis completed", "id", artifact.ID, "backend", backend, "bytes", artifact.Size, "elapsed", elapsed)

	if o.savePath != "" {
		if s.sink == nil {
			err := errors.New("no audio sink configured for saving")
			s.events.Error(string(backend), err)
			return nil, err
		}
		path, err := s.sink.Save(ctx, o.savePath, audio)
		if err != nil {
			s.events.Error(string(backend), err)
			return nil, fmt.Errorf("unable to save audio: %w", err)
		}
		artifact.Path = path
	}

	if o.store && s.store != nil {
		if err := s.store.Put(artifact); err != nil {
			s.events.Error(string(backend), err)
			return nil, fmt.Errorf("unable to store audio: %w", err)
		}
	}

	if o.play {
		if s.sink == nil {
			err := NewSpeechError(ErrorCodePlayback, "no audio sink configured", nil)
			s.events.Error(string(backend), err)
			return nil, err
		}
		if err := s.sink.Play(ctx, audio); err != nil {
			s.events.Error(string(backend), err)
			return nil, NewSpeechError(ErrorCodePlayback, "unable to play audio", err)
		}
	}

	s.history.Add(HistoryEntry{
		ID:        artifact.ID,
		Preview:   Preview(params.Text),
		Backend:   backend,
		Voice:     params.Voice,
		CreatedAt: artifact.CreatedAt,
		Elapsed:   elapsed,
	})
	s.events.Speak(artifact, params.Voice)

	return &Result{Artifact: artifact, Voice: params.Voice}, nil
}

// Close closes the engines and the event log.
func (s *Service) Close() error {
	return errors.Join(s.dispatcher.Close(), s.events.Close())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

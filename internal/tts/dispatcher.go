package tts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Dispatcher routes synthesis requests to exactly one registered engine.
type Dispatcher struct {
	mu      sync.RWMutex
	engines map[Backend]Engine
}

// NewDispatcher returns a dispatcher with the given engines registered.
func NewDispatcher(engines ...Engine) *Dispatcher {
	d := &Dispatcher{engines: make(map[Backend]Engine)}
	for _, e := range engines {
		d.Register(e)
	}
	return d
}

// Register adds an engine, replacing any engine already registered for
// the same backend.
func (d *Dispatcher) Register(e Engine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.engines[e.Backend()] = e
	log.Debug("Registered engine", "backend", e.Backend())
}

// Engine returns the engine registered for backend.
func (d *Dispatcher) Engine(backend Backend) (Engine, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.engines[backend]
	if !ok {
		return nil, UnsupportedBackendError(string(backend))
	}
	return e, nil
}

// Backends returns the registered backends in a stable order.
func (d *Dispatcher) Backends() []Backend {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Backend, 0, len(d.engines))
	for b := range d.engines {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch synthesizes params with the engine for backend. Engine failures
// that are not already classified become SynthesisFailure errors.
func (d *Dispatcher) Dispatch(ctx context.Context, backend Backend, params SynthesisParams) (*Audio, error) {
	e, err := d.Engine(backend)
	if err != nil {
		return nil, err
	}

	log.Debug("Dispatching synthesis", "backend", backend, "chars", len(params.Text), "voice", params.Voice)
	audio, err := e.Synthesize(ctx, params)
	if err != nil {
		return nil, classify(backend, err)
	}
	if audio == nil || len(audio.Data) == 0 {
		return nil, SynthesisFailure(backend, errors.New("engine produced no audio"))
	}
	return audio, nil
}

// Voices lists the voices offered by the engine for backend.
func (d *Dispatcher) Voices(ctx context.Context, backend Backend, language string) ([]Voice, error) {
	e, err := d.Engine(backend)
	if err != nil {
		return nil, err
	}
	voices, err := e.Voices(ctx, language)
	if err != nil {
		return nil, classify(backend, err)
	}
	return voices, nil
}

// Close closes every registered engine.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for b, e := range d.engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
		}
	}
	return errors.Join(errs...)
}

func classify(backend Backend, err error) error {
	var se *SpeechError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if backend == BackendCloud {
			return NetworkError(err).WithContext("timeout", true)
		}
		return SynthesisFailure(backend, err).WithContext("timeout", true)
	}
	return SynthesisFailure(backend, err)
}

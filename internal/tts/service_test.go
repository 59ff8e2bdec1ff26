package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestService(opts ...ServiceOption) (*Service, *fakeEngine, *fakeEngine) {
	offline := newFakeEngine(BackendOffline)
	cloud := newFakeEngine(BackendCloud)
	cloud.format = FormatMP3
	return NewService(NewDispatcher(offline, cloud), opts...), offline, cloud
}

func TestService_EmptyInputRejectedBeforeEngine(t *testing.T) {
	svc, offline, cloud := newTestService()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := svc.Speak(context.Background(), SpeechRequest{Text: text, Backend: "festival"})
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Speak(%q) error = %v, want ErrEmptyInput", text, err)
		}
	}
	if len(offline.Calls())+len(cloud.Calls()) != 0 {
		t.Error("engine was called for empty input")
	}
}

func TestService_UnsupportedBackend(t *testing.T) {
	svc, offline, cloud := newTestService()

	_, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello", Backend: "festival"})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("error = %v, want ErrUnsupportedBackend", err)
	}
	if len(offline.Calls())+len(cloud.Calls()) != 0 {
		t.Error("engine was called for an unsupported backend")
	}
}

func TestService_DispatchesToExactlyOneEngine(t *testing.T) {
	svc, offline, cloud := newTestService()

	res, err := svc.Speak(context.Background(), SpeechRequest{Text: "Dr. Who", Backend: "gtts"})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(offline.Calls()) != 0 || len(cloud.Calls()) != 1 {
		t.Fatalf("calls: offline=%d cloud=%d", len(offline.Calls()), len(cloud.Calls()))
	}
	if got := cloud.Calls()[0].Text; got != "Doctor Who" {
		t.Errorf("engine text = %q, want preprocessed text", got)
	}

	a := res.Artifact
	if _, err := uuid.Parse(a.ID); err != nil {
		t.Errorf("artifact id %q is not a UUID", a.ID)
	}
	if a.Backend != BackendCloud || a.Format != FormatMP3 || a.Size != int64(len(a.Data)) {
		t.Errorf("unexpected artifact: %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("artifact has no creation time")
	}
}

func TestService_AppliesDefaults(t *testing.T) {
	svc, _, cloud := newTestService(WithDefaults(Defaults{
		Backend:  BackendCloud,
		Voice:    "en-GB-Standard-A",
		Rate:     180,
		Volume:   0.7,
		Language: "en_gb",
	}))

	if _, err := svc.Speak(context.Background(), SpeechRequest{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	p := cloud.Calls()[0]
	if p.Voice != "en-GB-Standard-A" || p.Rate != 180 || p.Volume != 0.7 || p.Language != "en-GB" {
		t.Errorf("unexpected params: %+v", p)
	}

	zero := 0.0
	if _, err := svc.Speak(context.Background(), SpeechRequest{Text: "hi", Rate: 90, Volume: &zero, Language: "de"}); err != nil {
		t.Fatal(err)
	}
	p = cloud.Calls()[1]
	if p.Rate != 90 || p.Volume != 0 || p.Language != "de" {
		t.Errorf("request values did not override defaults: %+v", p)
	}
}

func TestService_InvalidVolume(t *testing.T) {
	svc, offline, _ := newTestService()
	v := 1.5
	_, err := svc.Speak(context.Background(), SpeechRequest{Text: "hi", Volume: &v})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if len(offline.Calls()) != 0 {
		t.Error("engine called with invalid volume")
	}
}

func TestService_ClassifiesEngineFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		err     error
		want    error
	}{
		{"plain error", "offline", errBoom, ErrSynthesisFailed},
		{"network error kept", "offline", NetworkError(errBoom), ErrNetwork},
		{"offline deadline", "offline", context.DeadlineExceeded, ErrSynthesisFailed},
		{"cloud deadline", "cloud", fmt.Errorf("request: %w", context.DeadlineExceeded), ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, offline, cloud := newTestService()
			offline.err = tt.err
			cloud.err = tt.err

			_, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello", Backend: tt.backend})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestService_SinkAndStore(t *testing.T) {
	sink := &fakeSink{}
	store := &fakeStore{}
	svc, _, _ := newTestService(WithSink(sink), WithArtifactStore(store))

	res, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello"}, SaveTo("out.wav"), Store(), Play())
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact.Path != "/abs/out.wav" {
		t.Errorf("Path = %q", res.Artifact.Path)
	}
	if _, ok := sink.saved["out.wav"]; !ok {
		t.Error("audio was not saved")
	}
	if len(sink.played) != 1 {
		t.Errorf("played %d times, want 1", len(sink.played))
	}
	if got, err := store.Get(res.Artifact.ID); err != nil || got != res.Artifact {
		t.Errorf("artifact not stored: %v", err)
	}
}

func TestService_PlaybackFailure(t *testing.T) {
	sink := &fakeSink{playErr: errBoom}
	svc, _, _ := newTestService(WithSink(sink))

	_, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello"}, Play())
	if !errors.Is(err, ErrPlaybackFailed) || !errors.Is(err, errBoom) {
		t.Errorf("error = %v, want playback failure wrapping cause", err)
	}
	if len(svc.History()) != 0 {
		t.Error("failed request recorded in history")
	}
}

func TestService_NoSink(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello"}, Play()); !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("Play without sink error = %v", err)
	}
	if _, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello"}, SaveTo("x.wav")); err == nil {
		t.Error("SaveTo without sink should fail")
	}
}

func TestService_HistoryAndEvents(t *testing.T) {
	var buf strings.Builder
	svc, _, _ := newTestService(WithEventLog(NewEventLog(&buf)))
	ctx := context.Background()

	for i := 0; i < HistorySize+2; i++ {
		if _, err := svc.Speak(ctx, SpeechRequest{Text: fmt.Sprintf("request %d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = svc.Speak(ctx, SpeechRequest{Text: ""})

	h := svc.History()
	if len(h) != HistorySize {
		t.Fatalf("history has %d entries, want %d", len(h), HistorySize)
	}
	if want := fmt.Sprintf("request %d", HistorySize+1); h[0].Preview != want {
		t.Errorf("newest entry = %q, want %q", h[0].Preview, want)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != HistorySize+3 {
		t.Fatalf("event log has %d lines, want %d", len(lines), HistorySize+3)
	}
	if !strings.Contains(lines[len(lines)-1], "EMPTY_INPUT") {
		t.Errorf("last event = %s", lines[len(lines)-1])
	}
}

func TestService_VoicesAndDefaults(t *testing.T) {
	svc, offline, _ := newTestService()
	offline.voices = []Voice{{ID: "en", Name: "English", Backend: BackendOffline}}

	voices, err := svc.Voices(context.Background(), "", "")
	if err != nil || len(voices) != 1 {
		t.Fatalf("Voices() = %v, %v", voices, err)
	}
	if _, err := svc.Voices(context.Background(), "festival", ""); !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Voices(festival) error = %v", err)
	}

	d := svc.Defaults()
	d.Rate = 200
	svc.SetDefaults(d)
	if svc.Defaults().Rate != 200 {
		t.Error("SetDefaults did not apply")
	}

	if got := svc.Backends(); len(got) != 2 || got[0] != BackendCloud || got[1] != BackendOffline {
		t.Errorf("Backends() = %v", got)
	}
}

func TestService_Close(t *testing.T) {
	svc, offline, cloud := newTestService()
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	if !offline.closed || !cloud.closed {
		t.Error("engines not closed")
	}
}

func TestService_MissingSinkIsLogged(t *testing.T) {
	tests := []struct {
		name string
		opt  SpeakOption
		code string
	}{
		{"play", Play(), string(ErrorCodePlayback)},
		{"save", SaveTo("out.wav"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			svc, _, _ := newTestService(WithEventLog(NewEventLog(&buf)))

			if _, err := svc.Speak(context.Background(), SpeechRequest{Text: "hello"}, tt.opt); err == nil {
				t.Fatal("expected error without a sink")
			}
			if len(svc.History()) != 0 {
				t.Error("failed request was added to history")
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != 1 {
				t.Fatalf("event log has %d lines, want 1", len(lines))
			}
			if !strings.Contains(lines[0], tt.code) || !strings.Contains(lines[0], "no audio sink") {
				t.Errorf("event = %s", lines[0])
			}
		})
	}
}

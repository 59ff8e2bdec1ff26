package audio

import (
	"testing"
	"time"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	wav, err := EncodeWAV(NewPCM(samples, 44100))
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", wav[:12])
	}

	pcm, err := DecodeWAV(wav, 44100)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if pcm.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", pcm.SampleRate)
	}

	got := pcm.Samples()
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestDecodeWAV_Resamples(t *testing.T) {
	samples := make([]int16, 22050)
	wav, err := EncodeWAV(NewPCM(samples, 22050))
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	pcm, err := DecodeWAV(wav, 44100)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if pcm.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", pcm.SampleRate)
	}
	if d := pcm.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}
}

func TestDecodeWAV_Invalid(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not a wav file"), 44100); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		name     string
		in       []int16
		from, to int
		want     []int16
	}{
		{"same rate", []int16{1, 2, 3}, 44100, 44100, []int16{1, 2, 3}},
		{"double", []int16{0, 100, 200}, 22050, 44100, []int16{0, 50, 100, 150, 200, 200}},
		{"half", []int16{0, 10, 20, 30}, 44100, 22050, []int16{0, 20}},
		{"empty", nil, 22050, 44100, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.in, tt.from, tt.to)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestApplyGain(t *testing.T) {
	pcm := NewPCM([]int16{1000, -1000, 30000}, 44100)

	pcm.ApplyGain(0.5)
	got := pcm.Samples()
	want := []int16{500, -500, 15000}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}

	pcm.ApplyGain(4)
	if s := pcm.Samples()[2]; s != 32767 {
		t.Errorf("expected clipping at 32767, got %d", s)
	}
}

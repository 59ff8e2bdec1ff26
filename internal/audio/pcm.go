package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// Playback format: signed 16-bit little endian mono.
const (
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8
)

// PCM is signed 16-bit little endian mono audio.
type PCM struct {
	Data       []byte
	SampleRate int
}

// Duration returns the playback length.
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate == 0 {
		return 0
	}
	samples := len(p.Data) / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(p.SampleRate)
}

// Samples returns the audio as int16 samples.
func (p *PCM) Samples() []int16 {
	samples := make([]int16, len(p.Data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(p.Data[i*2:]))
	}
	return samples
}

// NewPCM packs samples into a PCM buffer.
func NewPCM(samples []int16, sampleRate int) *PCM {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return &PCM{Data: data, SampleRate: sampleRate}
}

// DecodeWAV decodes a WAV file into mono 16-bit PCM at targetRate.
// Multi-channel audio is averaged down and other bit depths are rescaled.
func DecodeWAV(data []byte, targetRate int) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV data")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("unable to decode WAV: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("WAV contains no samples")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	shift := buf.SourceBitDepth - BitDepth

	samples := make([]int16, len(buf.Data)/channels)
	for i := range samples {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		v := sum / channels
		switch {
		case buf.SourceBitDepth == 8:
			v = (v - 128) << 8
		case shift > 0:
			v >>= shift
		}
		samples[i] = int16(clampSample(v))
	}

	rate := buf.Format.SampleRate
	if targetRate > 0 && rate != targetRate {
		samples = Resample(samples, rate, targetRate)
		rate = targetRate
	}
	return NewPCM(samples, rate), nil
}

// EncodeWAV writes PCM as a 16-bit mono WAV file in memory.
func EncodeWAV(pcm *PCM) ([]byte, error) {
	samples := pcm.Samples()
	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s)
	}

	file := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(file, pcm.SampleRate, BitDepth, Channels, 1)

	if err := encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{SampleRate: pcm.SampleRate, NumChannels: Channels},
		Data:           ints,
		SourceBitDepth: BitDepth,
	}); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	return io.ReadAll(file.Reader())
}

// Resample converts samples between rates with linear interpolation.
// Integer upsampling ratios (22050 to 44100) reproduce the source samples
// exactly at every ratio-th position.
func Resample(samples []int16, from, to int) []int16 {
	if from <= 0 || to <= 0 || from == to || len(samples) == 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]int16, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}

// ApplyGain scales samples in place, clipping at the int16 range.
func (p *PCM) ApplyGain(gain float64) {
	if gain == 1 {
		return
	}
	for i := 0; i+1 < len(p.Data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(p.Data[i:]))
		v := clampSample(int(float64(s) * gain))
		binary.LittleEndian.PutUint16(p.Data[i:], uint16(int16(v)))
	}
}

func clampSample(v int) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

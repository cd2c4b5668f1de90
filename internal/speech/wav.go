package speech

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	bitDepth     = 16
	pcmFormatTag = 1
	maxSample    = 1<<(bitDepth-1) - 1
	minSample    = -1 << (bitDepth - 1)
)

var errNoSamples = errors.New("no audio samples")

// encodeWAV writes mono 16-bit PCM samples as a RIFF/WAVE file.
func encodeWAV(samples []int, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, errNoSamples
	}

	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, 1, pcmFormatTag)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return ws.buf, nil
}

// decodeWAV returns the file's audio as mono 16-bit samples.
func decodeWAV(data []byte) ([]int, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid wav file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav samples: %w", err)
	}
	if pcm == nil || len(pcm.Data) == 0 {
		return nil, 0, errNoSamples
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	samples := downmix(pcm.Data, channels)
	rescale(samples, int(dec.BitDepth))

	return samples, int(dec.SampleRate), nil
}

// decodeMP3 returns mono 16-bit samples. go-mp3 always yields interleaved
// little-endian stereo.
func decodeMP3(data []byte) ([]int, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("open mp3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("decode mp3: %w", err)
	}

	frames := len(raw) / 4
	if frames == 0 {
		return nil, 0, errNoSamples
	}

	stereo := make([]int, 0, frames*2)
	for i := 0; i < frames*4; i += 2 {
		stereo = append(stereo, int(int16(uint16(raw[i])|uint16(raw[i+1])<<8)))
	}
	return downmix(stereo, 2), dec.SampleRate(), nil
}

func downmix(data []int, channels int) []int {
	if channels == 1 {
		out := make([]int, len(data))
		copy(out, data)
		return out
	}

	out := make([]int, 0, len(data)/channels)
	for i := 0; i+channels <= len(data); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i+c]
		}
		out = append(out, sum/channels)
	}
	return out
}

// rescale maps samples of the given depth onto signed 16-bit.
func rescale(samples []int, depth int) {
	for i, s := range samples {
		switch {
		case depth == 8:
			// 8-bit WAV is unsigned
			s = (s - 128) << 8
		case depth > bitDepth:
			s >>= depth - bitDepth
		case depth > 0 && depth < bitDepth:
			s <<= bitDepth - depth
		}
		samples[i] = clamp(s)
	}
}

func clamp(s int) int {
	if s > maxSample {
		return maxSample
	}
	if s < minSample {
		return minSample
	}
	return s
}

// writeSeeker is the in-memory io.WriteSeeker the WAV encoder needs to patch
// its header sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(abs)
	return abs, nil
}

// Package preview lets a compiled waveform be listened to rather than only
// plotted: it decimates a channel's I/Q planes from their native sample rate
// down to an audio rate and streams the result through the system audio
// device via an ebiten audio player.
package preview

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/arborwave/pulsegen/internal/pulsegen"
)

// Decimate averages non-overlapping windows of src down to approximately
// targetRate, returning the decimated series and the factor actually used
// (always >= 1). It exists because RF control waveforms are sampled in the
// hundreds of megasamples to gigasamples per second, far above anything an
// audio device accepts; box-car averaging keeps the envelope shape audible
// without aliasing white noise in from the discarded samples.
func Decimate(src []float64, sourceRate, targetRate float64) ([]float64, int) {
	if sourceRate <= 0 || targetRate <= 0 || targetRate >= sourceRate || len(src) == 0 {
		return append([]float64(nil), src...), 1
	}
	factor := int(math.Round(sourceRate / targetRate))
	if factor < 1 {
		factor = 1
	}
	n := (len(src) + factor - 1) / factor
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i * factor
		hi := lo + factor
		if hi > len(src) {
			hi = len(src)
		}
		var sum float64
		for _, v := range src[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out, factor
}

// Normalize scales a series so its peak absolute value is 1, leaving a
// silent (all-zero) series untouched.
func Normalize(src []float64) []float64 {
	peak := 0.0
	for _, v := range src {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	out := make([]float64, len(src))
	if peak == 0 {
		copy(out, src)
		return out
	}
	for i, v := range src {
		out[i] = v / peak
	}
	return out
}

// WaveformSource streams a compiled Waveform's I and Q planes as the left
// and right channels of a stereo signal. It implements io.ReadCloser
// directly, encoding its decimated, normalized samples as little-endian
// float32 PCM on demand, so it can be handed straight to an ebiten audio
// player without a separate adapter type.
type WaveformSource struct {
	mu          sync.Mutex
	left, right []float64
	pos         int
	loop        bool
	done        bool
}

// NewWaveformSource decimates wf from sourceRate down to audioRate and
// normalizes both planes to unit peak. A real channel (wf.Q == nil) is
// played back mono, duplicated across both speakers.
func NewWaveformSource(wf pulsegen.Waveform, sourceRate, audioRate float64, loop bool) *WaveformSource {
	left, _ := Decimate(wf.I, sourceRate, audioRate)
	left = Normalize(left)
	var right []float64
	if wf.Q != nil {
		right, _ = Decimate(wf.Q, sourceRate, audioRate)
		right = Normalize(right)
	} else {
		right = left
	}
	return &WaveformSource{left: left, right: right, loop: loop}
}

// Process fills dst with interleaved stereo float32 frames, advancing the
// internal read position and looping or marking Finished as configured.
// Samples are clamped to [-1, 1] before being handed out; Normalize already
// scales each plane to unit peak, so the clamp only guards that range.
func (s *WaveformSource) Process(dst []float32) {
	n := len(s.left)
	if n == 0 {
		for i := range dst {
			dst[i] = 0
		}
		s.done = true
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		if s.pos >= n {
			if !s.loop {
				dst[i], dst[i+1] = 0, 0
				s.done = true
				continue
			}
			s.pos = 0
		}
		dst[i] = clamp(float32(s.left[s.pos]))
		dst[i+1] = clamp(float32(s.right[s.pos]))
		s.pos++
	}
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// Finished reports whether a non-looping source has reached its end.
func (s *WaveformSource) Finished() bool {
	return s.done
}

// Read encodes successive stereo frames as little-endian float32 PCM,
// satisfying io.Reader for direct use by an ebiten audio player. It
// returns io.EOF once a non-looping source has emitted its last frame.
func (s *WaveformSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	buf := make([]float32, frames*2)
	s.Process(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	n := frames * 8
	if s.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Close satisfies io.ReadCloser; a WaveformSource holds no resources of its
// own to release.
func (s *WaveformSource) Close() error { return nil }

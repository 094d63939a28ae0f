package game

import (
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/iburimskiy/scrollwave/internal/config"
)

// Tap wraps the engine output on its way to the speaker and keeps the last
// samples in a ring so the HUD can draw level bars from what was actually
// played.
type Tap struct {
	Source    beep.Streamer
	buffer    [][2]float64
	nextIndex int
	mu        sync.RWMutex
}

func NewTap(src beep.Streamer, ringSize int) *Tap {
	return &Tap{
		Source: src,
		buffer: make([][2]float64, ringSize),
	}
}

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.mu.Lock()
		for i := 0; i < n; i++ {
			t.buffer[t.nextIndex] = samples[i]
			t.nextIndex++
			if t.nextIndex >= len(t.buffer) {
				t.nextIndex = 0
			}
		}
		t.mu.Unlock()
	}
	return n, ok
}

func (t *Tap) Err() error { return t.Source.Err() }

// snapshot returns up to the last n samples, oldest first.
func (t *Tap) snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(n, len(t.buffer))
	out := make([][2]float64, n)
	idx := t.nextIndex - n
	if idx < 0 {
		idx += len(t.buffer)
	}
	for i := range out {
		out[i] = t.buffer[idx]
		idx++
		if idx == len(t.buffer) {
			idx = 0
		}
	}
	return out
}

// levels folds the last window samples into len(bands) RMS bands, compressed
// for display and smoothed against the previous values in bands.
func (t *Tap) levels(bands []float64, window int) {
	samples := t.snapshot(window)
	if len(samples) == 0 || len(bands) == 0 {
		return
	}
	size := max(1, len(samples)/len(bands))
	for i := range bands {
		start := i * size
		if start >= len(samples) {
			break
		}
		end := min(start+size, len(samples))

		var sumSquares float64
		for _, s := range samples[start:end] {
			mono := (s[0] + s[1]) * 0.5
			sumSquares += mono * mono
		}
		rms := math.Sqrt(sumSquares / float64(end-start))
		mag := math.Pow(rms, 0.3)
		bands[i] = config.SmoothingFactor*bands[i] + (1-config.SmoothingFactor)*mag
	}
}

package synth

import (
	"math/rand"

	"github.com/faiface/beep"
)

// Buffer is mono sample data at its own sample rate.
type Buffer struct {
	SampleRate beep.SampleRate
	Data       []float64
}

// NewBuffer allocates a silent buffer of the given length.
func NewBuffer(sampleRate beep.SampleRate, frames int) *Buffer {
	return &Buffer{SampleRate: sampleRate, Data: make([]float64, frames)}
}

func (b *Buffer) Duration() float64 {
	return float64(len(b.Data)) / float64(b.SampleRate)
}

// NewNoiseBuffer fills seconds of uniform white noise in [-1, 1].
func NewNoiseBuffer(sampleRate beep.SampleRate, seconds float64, rng *rand.Rand) *Buffer {
	frames := int(float64(sampleRate) * seconds)
	if frames < 1 {
		frames = 1
	}
	b := NewBuffer(sampleRate, frames)
	for i := range b.Data {
		if rng != nil {
			b.Data[i] = rng.Float64()*2 - 1
		} else {
			b.Data[i] = rand.Float64()*2 - 1
		}
	}
	return b
}

// BufferSource plays a Buffer once.
type BufferSource struct {
	node
	buf     *Buffer
	started bool
	start   int64
	stop    int64
	end     int64
}

func (c *Context) NewBufferSource(buf *Buffer) *BufferSource {
	s := &BufferSource{buf: buf, stop: -1}
	s.init(c, s)
	return s
}

func (s *BufferSource) Start(when float64) error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if s.ctx.state == Closed {
		return ErrClosed
	}
	if s.started {
		return ErrInvalidState
	}
	s.started = true
	s.start = s.ctx.frameAt(when)
	s.end = s.start + s.ctx.frameAt(s.buf.Duration())
	return nil
}

func (s *BufferSource) Stop(when float64) error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	if !s.started {
		return ErrInvalidState
	}
	s.stop = s.ctx.frameAt(when)
	return nil
}

func (s *BufferSource) render(out []float64, frame int64) {
	if !s.started || len(s.buf.Data) == 0 {
		return
	}
	step := float64(s.buf.SampleRate) / float64(s.ctx.sampleRate)
	for i := range out {
		f := frame + int64(i)
		if f < s.start || f >= s.end || (s.stop >= 0 && f >= s.stop) {
			continue
		}
		idx := int(float64(f-s.start) * step)
		if idx < len(s.buf.Data) {
			out[i] = s.buf.Data[idx]
		}
	}
}

func (s *BufferSource) ended(frame int64) bool {
	if !s.started {
		return false
	}
	return frame >= s.end || (s.stop >= 0 && frame >= s.stop)
}

package synth

import "math"

type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

// BiquadFilter is a second-order RBJ filter whose cutoff and Q can be
// automated per sample.
type BiquadFilter struct {
	node
	Frequency *Param
	Q         *Param

	kind           FilterType
	in             mixer
	x1, x2, y1, y2 float64
	freq, q        scratch
}

// NewBiquadFilter creates a 350 Hz lowpass with Butterworth Q.
func (c *Context) NewBiquadFilter() *BiquadFilter {
	f := &BiquadFilter{}
	f.init(c, f)
	f.Frequency = newParam(c, 350)
	f.Q = newParam(c, math.Sqrt2/2)
	return f
}

func (f *BiquadFilter) SetType(t FilterType) {
	f.ctx.mu.Lock()
	f.kind = t
	f.ctx.mu.Unlock()
}

func (f *BiquadFilter) mixer() *mixer { return &f.in }

func (f *BiquadFilter) render(out []float64, frame int64) {
	f.in.sum(out, frame)
	freq := f.freq.get(len(out))
	q := f.q.get(len(out))
	f.Frequency.fill(freq, frame)
	f.Q.fill(q, frame)

	rate := float64(f.ctx.sampleRate)
	for i, x := range out {
		b0, b1, b2, a1, a2 := f.coefficients(freq[i], q[i], rate)
		y := b0*x + b1*f.x1 + b2*f.x2 - a1*f.y1 - a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		out[i] = y
	}
}

// coefficients returns the normalised biquad taps for cutoff hz.
func (f *BiquadFilter) coefficients(hz, q, rate float64) (b0, b1, b2, a1, a2 float64) {
	hz = math.Min(math.Max(hz, 10), rate*0.49)
	if q <= 0 {
		q = 1e-4
	}
	w := 2 * math.Pi * hz / rate
	cosw, sinw := math.Cos(w), math.Sin(w)
	alpha := sinw / (2 * q)
	a0 := 1 + alpha

	switch f.kind {
	case Highpass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
	}
	a1 = -2 * cosw
	a2 = 1 - alpha
	return b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0
}

func (f *BiquadFilter) ended(int64) bool {
	return f.in.drained()
}

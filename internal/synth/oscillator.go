package synth

import "math"

// Waveform selects an oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Sawtooth
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	default:
		return "unknown"
	}
}

func (w Waveform) sample(phase float64) float64 {
	switch w {
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// Oscillator is a periodic source. It is silent until started and ends
// once its stop time passes.
type Oscillator struct {
	node
	Frequency *Param

	wave    Waveform
	phase   float64
	started bool
	start   int64
	stop    int64
	freq    scratch
}

// NewOscillator creates a 440 Hz sine oscillator.
func (c *Context) NewOscillator() *Oscillator {
	o := &Oscillator{stop: -1}
	o.init(c, o)
	o.Frequency = newParam(c, 440)
	return o
}

func (o *Oscillator) SetType(w Waveform) {
	o.ctx.mu.Lock()
	o.wave = w
	o.ctx.mu.Unlock()
}

// Start schedules the oscillator to begin at when. It can only start once.
func (o *Oscillator) Start(when float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.ctx.state == Closed {
		return ErrClosed
	}
	if o.started {
		return ErrInvalidState
	}
	o.started = true
	o.start = o.ctx.frameAt(when)
	return nil
}

// Stop schedules the end of output at when.
func (o *Oscillator) Stop(when float64) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if !o.started {
		return ErrInvalidState
	}
	o.stop = o.ctx.frameAt(when)
	return nil
}

func (o *Oscillator) render(out []float64, frame int64) {
	freq := o.freq.get(len(out))
	o.Frequency.fill(freq, frame)
	if !o.started {
		return
	}
	rate := float64(o.ctx.sampleRate)
	for i := range out {
		f := frame + int64(i)
		if f < o.start || (o.stop >= 0 && f >= o.stop) {
			continue
		}
		out[i] = o.wave.sample(o.phase)
		o.phase += freq[i] / rate
		o.phase -= math.Floor(o.phase)
	}
}

func (o *Oscillator) ended(frame int64) bool {
	return o.started && o.stop >= 0 && frame >= o.stop
}

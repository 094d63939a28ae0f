// Package synth is a small pull-rendered synthesis graph modelled on the
// Web Audio node set: oscillators, buffer sources, gains and biquad filters
// connected into a destination, with sample-accurate parameter automation
// against the context's audio clock.
package synth

import (
	"errors"
	"math"
	"sync"

	"github.com/faiface/beep"
)

var (
	ErrClosed       = errors.New("synth: context closed")
	ErrInvalidState = errors.New("synth: invalid node state")
	ErrRange        = errors.New("synth: value out of range")
)

// blockSize is the number of frames rendered per graph pull.
const blockSize = 128

// State is the lifecycle state of a Context.
type State int

const (
	Suspended State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context owns a synthesis graph and its audio clock. The clock only
// advances while the context is Running and something pulls samples
// from it through Stream.
type Context struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	frame      int64
	state      State
	dest       *Gain
}

// NewContext creates a suspended context rendering at sampleRate.
func NewContext(sampleRate beep.SampleRate) *Context {
	c := &Context{
		sampleRate: sampleRate,
		state:      Suspended,
	}
	c.dest = newGain(c)
	c.dest.persistent = true
	return c
}

func (c *Context) SampleRate() beep.SampleRate { return c.sampleRate }

// Destination is the sink every audible chain must eventually connect to.
func (c *Context) Destination() *Gain { return c.dest }

// CurrentTime returns the audio clock in seconds.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the audio clock.
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	c.state = Running
	return nil
}

// Suspend halts the audio clock; Stream emits silence until Resume.
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	c.state = Suspended
	return nil
}

// Close releases the whole graph. A closed context cannot be resumed and
// ends its stream.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return nil
	}
	c.state = Closed
	c.dest.in.inputs = nil
	return nil
}

// ActiveNodes counts the nodes currently reachable from the destination.
func (c *Context) ActiveNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return countNodes(c.dest)
}

func countNodes(in Input) int {
	n := 0
	for _, child := range in.mixer().inputs {
		n++
		if sub, ok := child.(Input); ok {
			n += countNodes(sub)
		}
	}
	return n
}

// Stream renders the graph into samples. It implements beep.Streamer so a
// context can be handed straight to the speaker.
func (c *Context) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return 0, false
	}
	if c.state != Running {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	for off := 0; off < len(samples); {
		n := min(blockSize, len(samples)-off)
		out := pull(c.dest, c.frame, n)
		for i := 0; i < n; i++ {
			samples[off+i][0] = out[i]
			samples[off+i][1] = out[i]
		}
		c.frame += int64(n)
		off += n
	}
	return len(samples), true
}

func (c *Context) Err() error { return nil }

var _ beep.Streamer = (*Context)(nil)

func (c *Context) now() float64 {
	return float64(c.frame) / float64(c.sampleRate)
}

func (c *Context) timeOf(frame int64) float64 {
	return float64(frame) / float64(c.sampleRate)
}

func (c *Context) frameAt(t float64) int64 {
	if t <= 0 {
		return 0
	}
	return int64(math.Round(t * float64(c.sampleRate)))
}

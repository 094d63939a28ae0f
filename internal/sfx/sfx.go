// Package sfx is the library of one-shot synthesised sound events. Each
// event builds its own short-lived nodes, schedules them from a start time
// and lets the graph release them when they finish.
package sfx

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/iburimskiy/scrollwave/internal/synth"
)

var (
	ErrUnknownKind = errors.New("sfx: unknown sound kind")
	ErrNoOutput    = errors.New("sfx: no audio output")
)

// Kind identifies a sound event.
type Kind int

const (
	TransientClick Kind = iota
	PowerDown
	PowerUp
	EtherealSwoosh
	ChordPad
	ImpactKick
	DeepImpact
	CinematicImpact
)

var kindNames = [...]string{
	"transient-click",
	"power-down",
	"power-up",
	"ethereal-swoosh",
	"chord-pad",
	"impact-kick",
	"deep-impact",
	"cinematic-impact",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Kinds lists every event in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Graph is the handle an event renders into: the context, the bus it must
// connect to, and the noise generator.
type Graph struct {
	Ctx  *synth.Context
	Dest synth.Input
	Rand *rand.Rand
}

// Event renders one sound starting at t (audio clock seconds).
type Event func(g Graph, t float64) error

var events = [...]Event{
	TransientClick:  transientClick,
	PowerDown:       powerDown,
	PowerUp:         powerUp,
	EtherealSwoosh:  etherealSwoosh,
	ChordPad:        chordPad,
	ImpactKick:      impactKick,
	DeepImpact:      deepImpact,
	CinematicImpact: cinematicImpact,
}

var durations = [...]float64{
	TransientClick:  0.1,
	PowerDown:       0.6,
	PowerUp:         0.5,
	EtherealSwoosh:  2,
	ChordPad:        3,
	ImpactKick:      0.3,
	DeepImpact:      3,
	CinematicImpact: 2.5,
}

// Duration is how long the event's nodes stay alive after t.
func (k Kind) Duration() float64 {
	if k < 0 || int(k) >= len(durations) {
		return 0
	}
	return durations[k]
}

// Play renders kind at t.
func Play(g Graph, kind Kind, t float64) error {
	if kind < 0 || int(kind) >= len(events) {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if g.Ctx == nil || g.Dest == nil {
		return ErrNoOutput
	}
	if g.Ctx.State() == synth.Closed {
		return fmt.Errorf("%s: %w", kind, synth.ErrClosed)
	}
	if err := events[kind](g, t); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

func (g Graph) noise(seconds float64) *synth.BufferSource {
	return g.Ctx.NewBufferSource(synth.NewNoiseBuffer(g.Ctx.SampleRate(), seconds, g.Rand))
}

func (g Graph) lowpass() *synth.BiquadFilter {
	f := g.Ctx.NewBiquadFilter()
	f.SetType(synth.Lowpass)
	return f
}

func (g Graph) sine() *synth.Oscillator {
	o := g.Ctx.NewOscillator()
	o.SetType(synth.Sine)
	return o
}

// expSweep jumps p to from at t and ramps exponentially to to over d.
func expSweep(p *synth.Param, from, to, t, d float64) error {
	p.SetValueAtTime(from, t)
	return p.ExponentialRampToValueAtTime(to, t+d)
}

// linearFade jumps p to from at t and ramps linearly to to over d.
func linearFade(p *synth.Param, from, to, t, d float64) {
	p.SetValueAtTime(from, t)
	p.LinearRampToValueAtTime(to, t+d)
}

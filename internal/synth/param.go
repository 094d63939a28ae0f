package synth

import (
	"fmt"
	"math"
)

type eventKind int

const (
	setEvent eventKind = iota
	linearEvent
	exponentialEvent
	targetEvent
)

type event struct {
	kind  eventKind
	time  float64
	value float64
	tc    float64
}

// Param is an automatable node parameter. Scheduled events are kept sorted
// by time; rendering consumes them as the audio clock passes.
type Param struct {
	ctx *Context

	// value is the curve's value at anchor time at; target, when set, is the
	// governing setTarget event approached from there.
	value  float64
	at     float64
	target *event
	events []event
}

func newParam(ctx *Context, v float64) *Param {
	return &Param{ctx: ctx, value: v}
}

// Value returns the parameter value at the current audio time.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.valueAt(p.ctx.now())
}

// SetValue drops all automation and jumps to v immediately.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.events = p.events[:0]
	p.value, p.target, p.at = v, nil, p.ctx.now()
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.schedule(event{kind: setEvent, time: t, value: v})
}

func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.schedule(event{kind: linearEvent, time: t, value: v})
}

// ExponentialRampToValueAtTime ramps geometrically to v, which must be
// positive.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) error {
	if v <= 0 || math.IsNaN(v) {
		return fmt.Errorf("%w: exponential ramp target %g", ErrRange, v)
	}
	p.schedule(event{kind: exponentialEvent, time: t, value: v})
	return nil
}

// SetTargetAtTime approaches v from time t with time constant tc. A
// non-positive tc jumps to v at t.
func (p *Param) SetTargetAtTime(v, t, tc float64) {
	if tc <= 0 {
		p.SetValueAtTime(v, t)
		return
	}
	p.schedule(event{kind: targetEvent, time: t, value: v, tc: tc})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	kept := p.events[:0]
	for _, ev := range p.events {
		if ev.time < t {
			kept = append(kept, ev)
		}
	}
	p.events = kept
}

func (p *Param) schedule(ev event) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	if ev.time < p.at {
		ev.time = p.at
	}
	i := len(p.events)
	for i > 0 && p.events[i-1].time > ev.time {
		i--
	}
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// valueAt evaluates the automation at t and retires events already in the
// past. Callers must hold the context lock and never go back in time.
func (p *Param) valueAt(t float64) float64 {
	for len(p.events) > 0 {
		ev := p.events[0]
		if ev.time > t {
			if ev.kind == linearEvent || ev.kind == exponentialEvent {
				return p.ramp(ev, t)
			}
			break
		}
		switch ev.kind {
		case setEvent, linearEvent, exponentialEvent:
			p.value, p.target = ev.value, nil
		case targetEvent:
			p.value = p.curve(ev.time)
			p.target = &ev
		}
		p.at = ev.time
		p.events = p.events[1:]
	}
	return p.curve(t)
}

func (p *Param) curve(t float64) float64 {
	if p.target == nil {
		return p.value
	}
	dt := t - p.at
	if dt < 0 {
		dt = 0
	}
	goal := p.target.value
	return goal + (p.value-goal)*math.Exp(-dt/p.target.tc)
}

func (p *Param) ramp(ev event, t float64) float64 {
	v0 := p.value
	span := ev.time - p.at
	if span <= 0 {
		return ev.value
	}
	x := (t - p.at) / span
	if ev.kind == linearEvent {
		return v0 + (ev.value-v0)*x
	}
	if v0 <= 0 {
		return v0
	}
	return v0 * math.Pow(ev.value/v0, x)
}

// fill writes the per-sample automation for the block starting at frame.
func (p *Param) fill(buf []float64, frame int64) {
	for i := range buf {
		buf[i] = p.valueAt(p.ctx.timeOf(frame + int64(i)))
	}
}

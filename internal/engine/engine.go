// Package engine wires the audio graph, the rhythm scheduler, the particle
// field and the control channel behind the small surface the app drives:
// scroll and pointer samples in, frames stepped, particles drawn.
package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/faiface/beep"
	"github.com/iburimskiy/scrollwave/internal/config"
	"github.com/iburimskiy/scrollwave/internal/control"
	"github.com/iburimskiy/scrollwave/internal/frame"
	"github.com/iburimskiy/scrollwave/internal/particles"
	"github.com/iburimskiy/scrollwave/internal/phase"
	"github.com/iburimskiy/scrollwave/internal/rhythm"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/sfx"
	"github.com/iburimskiy/scrollwave/internal/synth"
	"github.com/pion/logging"
)

var ErrClosed = errors.New("engine: closed")

type Options struct {
	// Loggers builds one logger per subsystem. Nil uses pion's default
	// factory.
	Loggers logging.LoggerFactory
	// Timeline, when set, is evaluated on every scroll sample and its
	// events applied.
	Timeline *phase.Timeline
	Rand     *rand.Rand
	Muted    bool
}

// Stats is a read-out for overlays and logs.
type Stats struct {
	Available bool
	Muted     bool
	State     rhythm.State
	Progress  float64
	Tempo     float64
	Beats     int
	Speed     float64
	Override  bool
	Mode      control.ColorMode
	Nodes     int
}

// Engine is driven from a single goroutine: the frame loop's. Only the
// audio context is shared with the output goroutine, and it locks itself.
type Engine struct {
	log      logging.LeveledLogger
	ctx      *synth.Context
	loop     *frame.Loop
	sched    *rhythm.Scheduler
	field    *particles.Field
	channel  *control.Channel
	timeline *phase.Timeline
	rng      *rand.Rand

	muted    bool
	closed   bool
	sample   scroll.Sample
	beats    int
	renderID frame.Handle
}

// New builds an engine around ctx. A nil ctx means no audio output is
// available; every sound call then degrades to a no-op.
func New(ctx *synth.Context, opts Options) *Engine {
	loggers := opts.Loggers
	if loggers == nil {
		loggers = logging.NewDefaultLoggerFactory()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	e := &Engine{
		log:      loggers.NewLogger("engine"),
		ctx:      ctx,
		loop:     frame.NewLoop(),
		field:    particles.NewField(rng),
		channel:  control.NewChannel(),
		timeline: opts.Timeline,
		rng:      rng,
		muted:    opts.Muted,
	}
	if ctx != nil {
		e.sched = rhythm.New(ctx, rhythm.Options{
			Loop:   e.loop,
			Log:    loggers.NewLogger("rhythm"),
			Rand:   rng,
			Muted:  opts.Muted,
			OnBeat: func(float64) { e.beats++ },
		})
	} else {
		e.log.Warn("no audio output; running silent")
	}
	e.renderID = e.loop.Request(e.render)
	return e
}

// Available reports whether an audio output was found at construction.
func (e *Engine) Available() bool { return e.ctx != nil }

// Output is the stream to hand to the speaker.
func (e *Engine) Output() beep.Streamer {
	if e.ctx == nil {
		return beep.Silence(-1)
	}
	return e.ctx
}

// Start initialises the bed on first use and starts or resumes the beat.
func (e *Engine) Start() error {
	if e.closed {
		return ErrClosed
	}
	if e.sched == nil {
		return nil
	}
	if err := e.sched.Start(); err != nil {
		return fmt.Errorf("engine: start: %w", err)
	}
	e.log.Infof("audio running at %d Hz", e.ctx.SampleRate())
	return nil
}

func (e *Engine) Suspend() error {
	if e.sched == nil || e.closed {
		return nil
	}
	return e.sched.Suspend()
}

// Running reports whether the beat is currently playing.
func (e *Engine) Running() bool {
	return e.sched != nil && e.sched.State() == rhythm.Running
}

// Close cancels both loops and releases the audio graph.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.loop.Cancel(e.renderID)
	if e.sched == nil {
		return nil
	}
	return errors.Join(e.sched.Close(), e.ctx.Close())
}

// Frame runs one display frame: the scheduler's lookahead tick and the
// particle step.
func (e *Engine) Frame(now float64) {
	e.loop.Step(now)
}

func (e *Engine) render(float64) {
	if e.closed {
		return
	}
	e.field.Step(e.channel.Load(), e.sample.Progress())
	e.renderID = e.loop.Request(e.render)
}

// Draw paints the particle field.
func (e *Engine) Draw(s particles.Surface) {
	e.field.Draw(s)
}

func (e *Engine) Resize(width, height int) {
	e.field.Resize(width, height)
}

// OnScroll feeds a scroll sample to the scheduler and the phase timeline.
func (e *Engine) OnScroll(sample scroll.Sample) {
	e.sample = sample
	if e.sched != nil {
		e.sched.OnScroll(sample)
	}
	if e.timeline == nil {
		return
	}
	for _, ev := range e.timeline.Update(sample.Progress()) {
		e.HandlePhase(ev)
	}
}

func (e *Engine) SetPointer(x, y float64) { e.field.SetPointer(x, y) }

func (e *Engine) ClearPointer() { e.field.ClearPointer() }

// ApplyPhase overrides particle behaviour until ClearPhase.
func (e *Engine) ApplyPhase(s control.Settings) { e.channel.Publish(s) }

func (e *Engine) ClearPhase() { e.channel.Clear() }

// HandlePhase applies one timeline event.
func (e *Engine) HandlePhase(ev phase.Event) {
	e.log.Debugf("phase %s", ev.Trigger)
	switch {
	case ev.Clear:
		e.ClearPhase()
	case ev.Settings != nil:
		e.ApplyPhase(*ev.Settings)
	}
	if ev.Sound != nil {
		e.TriggerSound(*ev.Sound)
	}
	if ev.Confetti {
		w, h := e.field.Size()
		e.field.Burst(config.ConfettiCount, w/2, h*0.9, particles.Gold)
	}
}

// Muted reports the mute state.
func (e *Engine) Muted() bool { return e.muted }

// SetMuted fades the bed in or out. The power-up and power-down cues are
// the caller's to play.
func (e *Engine) SetMuted(muted bool) {
	e.muted = muted
	if e.sched != nil {
		e.sched.SetMuted(muted)
	}
}

// TriggerSound plays kind now.
func (e *Engine) TriggerSound(kind sfx.Kind) {
	if e.ctx == nil {
		return
	}
	e.TriggerSoundAt(kind, e.ctx.CurrentTime())
}

// TriggerSoundAt plays kind at audio time when. It does nothing while muted,
// before the output is running, or without an output; failures are logged.
func (e *Engine) TriggerSoundAt(kind sfx.Kind, when float64) {
	if e.muted || e.ctx == nil || e.ctx.State() != synth.Running {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warnf("sound %s: %v", kind, r)
		}
	}()
	g := sfx.Graph{Ctx: e.ctx, Dest: e.ctx.Destination(), Rand: e.rng}
	if err := sfx.Play(g, kind, when); err != nil {
		e.log.Warnf("sound %s: %v", kind, err)
	}
}

func (e *Engine) Stats() Stats {
	snap := e.channel.Load()
	st := Stats{
		Available: e.ctx != nil,
		Muted:     e.muted,
		Progress:  e.sample.Progress(),
		Tempo:     rhythm.Tempo(e.sample.Progress()),
		Beats:     e.beats,
		Speed:     e.field.Speed(),
		Override:  snap.Override,
		Mode:      snap.ColorMode,
	}
	if e.sched != nil {
		st.State = e.sched.State()
		st.Tempo = e.sched.CurrentTempo()
		st.Nodes = e.ctx.ActiveNodes()
	}
	return st
}

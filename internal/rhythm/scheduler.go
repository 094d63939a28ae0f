// Package rhythm drives the perpetual beat bed: a bass drone pulsed by a
// lookahead scheduler whose tempo, pitch and loudness follow scroll
// progress.
package rhythm

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/iburimskiy/scrollwave/internal/config"
	"github.com/iburimskiy/scrollwave/internal/frame"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/synth"
	"github.com/pion/logging"
)

var (
	ErrTornDown = errors.New("rhythm: scheduler torn down")
	ErrNoAudio  = errors.New("rhythm: no audio context")
)

// State is the scheduler lifecycle.
type State int

const (
	Uninitialized State = iota
	Initialized
	Running
	Suspended
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case TornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// Tempo maps progress to beats per minute: 50 at the top, 150 at the end.
func Tempo(progress float64) float64 {
	return config.MinTempoBPM + config.TempoRangeBPM*scroll.Clamp01(progress)
}

// BassFrequency maps progress to the drone's baseline pitch in Hz.
func BassFrequency(progress float64) float64 {
	return config.BaseBassHz + config.BassRangeHz*scroll.Clamp01(progress)
}

// TargetVolume maps progress to master gain, or 0 while muted.
func TargetVolume(progress float64, muted bool) float64 {
	if muted {
		return 0
	}
	return config.BaseVolume + config.VolumeRange*scroll.Clamp01(progress)
}

// Options configures a Scheduler.
type Options struct {
	Loop  frame.Requester
	Log   logging.LeveledLogger
	Rand  *rand.Rand
	Muted bool
	// OnBeat, when set, is called with the audio time of every beat as it is
	// scheduled.
	OnBeat func(t float64)
}

// Scheduler owns the long-lived bed graph and its clock state. All methods
// are expected to run on the frame loop's goroutine; the mutex only guards
// against callers that do not.
type Scheduler struct {
	mu   sync.Mutex
	ctx  *synth.Context
	loop frame.Requester
	log  logging.LeveledLogger
	rng  *rand.Rand

	onBeat func(t float64)

	state  State
	muted  bool
	sample scroll.Sample

	master   *synth.Gain
	envelope *synth.Gain
	bass     *synth.Oscillator
	harmonic *synth.Oscillator
	click    *synth.Buffer

	nextEventTime float64
	tempo         float64
	baseline      float64
	pending       frame.Handle
}

func New(ctx *synth.Context, opts Options) *Scheduler {
	log := opts.Log
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("rhythm")
	}
	loop := opts.Loop
	if loop == nil {
		loop = frame.NewLoop()
	}
	return &Scheduler{
		ctx:      ctx,
		loop:     loop,
		log:      log,
		rng:      opts.Rand,
		onBeat:   opts.OnBeat,
		muted:    opts.Muted,
		tempo:    Tempo(0),
		baseline: BassFrequency(0),
	}
}

// Init builds the bed: a sine bass and a quieter triangle harmonic behind a
// beat envelope that sits at zero until the first beat, into a master gain.
func (s *Scheduler) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init()
}

func (s *Scheduler) init() error {
	switch s.state {
	case TornDown:
		return ErrTornDown
	case Uninitialized:
	default:
		return nil
	}
	if s.ctx == nil {
		return ErrNoAudio
	}

	ctx := s.ctx
	s.master = ctx.NewGain()
	s.master.Persist()
	initial := config.InitialVolume
	if s.muted {
		initial = 0
	}
	s.master.Gain.SetValue(initial)

	s.envelope = ctx.NewGain()
	s.envelope.Persist()
	s.envelope.Gain.SetValue(0)

	s.bass = ctx.NewOscillator()
	s.bass.SetType(synth.Sine)
	s.bass.Frequency.SetValue(s.baseline)

	s.harmonic = ctx.NewOscillator()
	s.harmonic.SetType(synth.Triangle)
	s.harmonic.Frequency.SetValue(config.HarmonicHz)
	harmonicMix := ctx.NewGain()
	harmonicMix.Gain.SetValue(config.HarmonicMix)

	s.click = synth.NewNoiseBuffer(ctx.SampleRate(), config.ClickSeconds, s.rng)

	err := errors.Join(
		s.bass.Connect(s.envelope),
		s.harmonic.Connect(harmonicMix),
		harmonicMix.Connect(s.envelope),
		s.envelope.Connect(s.master),
		s.bass.Start(0),
		s.harmonic.Start(0),
		s.master.Connect(ctx.Destination()),
	)
	if err != nil {
		return fmt.Errorf("rhythm: build bed: %w", err)
	}
	s.state = Initialized
	s.log.Debug("bed initialized")
	return nil
}

// Start unlocks the output and begins the lookahead loop. Starting a
// suspended scheduler resumes it.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return nil
	}
	if err := s.init(); err != nil {
		return err
	}
	if err := s.unlock(); err != nil {
		return err
	}

	s.nextEventTime = s.ctx.CurrentTime() + config.LookaheadSeconds
	s.state = Running
	s.applyScroll()
	s.pending = s.loop.Request(s.tick)
	s.log.Debugf("started at %.3fs, %.1f bpm", s.nextEventTime, s.tempo)
	return nil
}

// unlock resumes the context and plays a one-frame silent buffer; some
// outputs drop the first scheduled events otherwise.
func (s *Scheduler) unlock() error {
	if err := s.ctx.Resume(); err != nil {
		return fmt.Errorf("rhythm: resume output: %w", err)
	}
	silent := s.ctx.NewBufferSource(synth.NewBuffer(22050, 1))
	return errors.Join(
		silent.Start(0),
		silent.Connect(s.ctx.Destination()),
	)
}

// Suspend cancels the pending tick and suspends the output. The bed and
// clock state are kept for Start.
func (s *Scheduler) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running {
		return nil
	}
	s.loop.Cancel(s.pending)
	s.pending = 0
	s.state = Suspended
	if err := s.ctx.Suspend(); err != nil {
		return fmt.Errorf("rhythm: suspend output: %w", err)
	}
	s.log.Debug("suspended")
	return nil
}

// Close cancels the loop and stops the bed. It is terminal.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == TornDown {
		return nil
	}
	s.loop.Cancel(s.pending)
	s.pending = 0

	var err error
	if s.state != Uninitialized && s.ctx.State() != synth.Closed {
		now := s.ctx.CurrentTime()
		err = errors.Join(s.bass.Stop(now), s.harmonic.Stop(now))
	}
	s.state = TornDown
	s.log.Debug("torn down")
	return err
}

// SetMuted fades the master gain with the smoothing constant. Beats keep
// being scheduled so unmuting resumes in phase.
func (s *Scheduler) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muted
	if s.master == nil || s.state == TornDown {
		return
	}
	target := TargetVolume(s.sample.Progress(), muted)
	if s.sample.NearEnd(config.EndFadePixels) {
		target = 0
	}
	s.master.Gain.SetTargetAtTime(target, s.ctx.CurrentTime(), config.SmoothingSeconds)
}

// OnScroll applies a new scroll reading to volume, pitch and tempo. It is
// not gated by the tick; tempo changes land on the next scheduled beat.
func (s *Scheduler) OnScroll(sample scroll.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample = sample
	s.applyScroll()
}

func (s *Scheduler) applyScroll() {
	if s.state == Uninitialized || s.state == TornDown {
		return
	}
	p := s.sample.Progress()
	now := s.ctx.CurrentTime()

	switch {
	case s.sample.NearEnd(config.EndFadePixels):
		s.master.Gain.SetTargetAtTime(0, now, config.EndFadeSeconds)
	case !s.muted:
		s.master.Gain.SetTargetAtTime(TargetVolume(p, false), now, config.SmoothingSeconds)
	}

	s.baseline = BassFrequency(p)
	s.bass.Frequency.SetTargetAtTime(s.baseline, now, config.SmoothingSeconds)
	s.tempo = Tempo(p)
}

func (s *Scheduler) tick(float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running {
		return
	}
	s.scheduleAhead(s.ctx.CurrentTime())
	s.pending = s.loop.Request(s.tick)
}

// scheduleAhead schedules every beat that falls inside the lookahead
// window. A loop that fell behind (a stalled frame) restarts from now
// rather than piling up late beats.
func (s *Scheduler) scheduleAhead(now float64) {
	if s.nextEventTime < now {
		s.nextEventTime = now
	}
	secondsPerBeat := 60 / s.tempo
	for s.nextEventTime < now+config.LookaheadSeconds {
		s.safeBeat(s.nextEventTime)
		s.nextEventTime += secondsPerBeat
	}
}

func (s *Scheduler) safeBeat(t float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnf("beat at %.3fs: %v", t, r)
		}
	}()
	if err := s.beat(t); err != nil {
		s.log.Warnf("beat at %.3fs: %v", t, err)
	}
}

// beat retriggers the envelope, kicks the bass pitch and fires a noise
// click straight into the master.
func (s *Scheduler) beat(t float64) error {
	s.log.Tracef("beat at %.3fs (%.1f bpm)", t, s.tempo)

	env := s.envelope.Gain
	env.CancelScheduledValues(t)
	env.SetValueAtTime(0, t)
	env.LinearRampToValueAtTime(1, t+config.BeatAttackSeconds)

	s.bass.Frequency.SetValueAtTime(s.baseline+config.KickHz, t)

	click := s.ctx.NewBufferSource(s.click)
	clickEnv := s.ctx.NewGain()
	clickEnv.Gain.SetValueAtTime(config.ClickGain, t)

	err := errors.Join(
		env.ExponentialRampToValueAtTime(config.BeatFloor, t+config.BeatDecaySeconds),
		s.bass.Frequency.ExponentialRampToValueAtTime(s.baseline, t+config.KickSeconds),
		clickEnv.Gain.ExponentialRampToValueAtTime(config.BeatFloor, t+config.ClickSeconds),
		click.Connect(clickEnv),
		click.Start(t),
		click.Stop(t+config.ClickSeconds),
		clickEnv.Connect(s.master),
	)
	if s.onBeat != nil {
		s.onBeat(t)
	}
	return err
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentTempo returns the tempo the next beat will use.
func (s *Scheduler) CurrentTempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// NextEventTime returns the audio time of the next unscheduled beat.
func (s *Scheduler) NextEventTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEventTime
}

// MasterGain returns the bed's current output gain, or 0 before Init.
func (s *Scheduler) MasterGain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.master == nil {
		return 0
	}
	return s.master.Gain.Value()
}

// BassPitch returns the drone's current frequency.
func (s *Scheduler) BassPitch() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bass == nil {
		return s.baseline
	}
	return s.bass.Frequency.Value()
}

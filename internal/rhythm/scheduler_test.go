package rhythm

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/faiface/beep"
	"github.com/iburimskiy/scrollwave/internal/frame"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/synth"
)

const (
	testRate = beep.SampleRate(8000)
	// 20ms of audio per simulated frame
	frameSamples = 160
)

type rig struct {
	ctx   *synth.Context
	loop  *frame.Loop
	sched *Scheduler
	beats []float64
	buf   [][2]float64
}

func newRig(t *testing.T, muted bool) *rig {
	t.Helper()
	r := &rig{
		ctx:  synth.NewContext(testRate),
		loop: frame.NewLoop(),
		buf:  make([][2]float64, frameSamples),
	}
	r.sched = New(r.ctx, Options{
		Loop:   r.loop,
		Rand:   rand.New(rand.NewSource(7)),
		Muted:  muted,
		OnBeat: func(at float64) { r.beats = append(r.beats, at) },
	})
	return r
}

// run renders audio and steps the frame loop in lockstep for the given
// number of seconds.
func (r *rig) run(seconds float64) {
	frames := int(math.Round(seconds * float64(testRate) / frameSamples))
	for i := 0; i < frames; i++ {
		r.ctx.Stream(r.buf)
		r.loop.Step(r.ctx.CurrentTime())
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMappings(t *testing.T) {
	tests := []struct {
		progress    float64
		tempo, bass float64
		volume      float64
	}{
		{0, 50, 50, 0.15},
		{0.5, 100, 70, 0.35},
		{1, 150, 90, 0.55},
		{-1, 50, 50, 0.15},
		{2, 150, 90, 0.55},
	}
	for _, tt := range tests {
		if got := Tempo(tt.progress); !almostEqual(got, tt.tempo, 1e-9) {
			t.Errorf("Tempo(%v) = %v, want %v", tt.progress, got, tt.tempo)
		}
		if got := BassFrequency(tt.progress); !almostEqual(got, tt.bass, 1e-9) {
			t.Errorf("BassFrequency(%v) = %v, want %v", tt.progress, got, tt.bass)
		}
		if got := TargetVolume(tt.progress, false); !almostEqual(got, tt.volume, 1e-9) {
			t.Errorf("TargetVolume(%v) = %v, want %v", tt.progress, got, tt.volume)
		}
		if got := TargetVolume(tt.progress, true); got != 0 {
			t.Errorf("TargetVolume(%v, muted) = %v, want 0", tt.progress, got)
		}
	}
}

func TestScheduler_NoAudio(t *testing.T) {
	s := New(nil, Options{})
	if err := s.Start(); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Expected ErrNoAudio, got %v", err)
	}
	// no-ops without a bed
	s.OnScroll(scroll.Sample{Y: 10, Scrollable: 100})
	s.SetMuted(true)
	if s.State() != Uninitialized {
		t.Errorf("Expected uninitialized, got %s", s.State())
	}
}

func TestScheduler_BeatSpacingDoesNotDrift(t *testing.T) {
	r := newRig(t, false)
	r.sched.OnScroll(scroll.Sample{Y: 1000, Scrollable: 4000})
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	spb := 60 / r.sched.CurrentTempo()

	// Drive the window directly so a thousand beats do not need a
	// thousand beats of rendered audio.
	now := 0.0
	for len(r.beats) < 1000 {
		now += 1.0 / 60
		r.sched.scheduleAhead(now)
	}

	for i := 1; i < 1000; i++ {
		if gap := r.beats[i] - r.beats[i-1]; !almostEqual(gap, spb, 1e-9) {
			t.Fatalf("Beat %d: gap %v, want %v", i, gap, spb)
		}
	}
	if total := r.beats[999] - r.beats[0]; !almostEqual(total, 999*spb, 1e-6) {
		t.Errorf("Expected 999 beats to span %v, got %v", 999*spb, total)
	}
	if r.beats[0] != 0.1 {
		t.Errorf("Expected the first beat one lookahead after start, got %v", r.beats[0])
	}
}

func TestScheduler_BeatsStayInsideLookahead(t *testing.T) {
	r := newRig(t, false)
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(3)
	now := r.ctx.CurrentTime()
	for _, b := range r.beats {
		if b >= now+0.1 {
			t.Errorf("Beat at %v scheduled beyond the window ending %v", b, now+0.1)
		}
	}
	// 50 bpm: beats at 0.1, 1.3, 2.5
	if len(r.beats) != 3 {
		t.Errorf("Expected 3 beats in 3s at 50 bpm, got %v", r.beats)
	}
}

func TestScheduler_MuteDoesNotShiftBeats(t *testing.T) {
	plain := newRig(t, false)
	toggled := newRig(t, false)
	for _, r := range []*rig{plain, toggled} {
		if err := r.sched.Start(); err != nil {
			t.Fatal(err)
		}
	}

	plain.run(5)
	for i := 0; i < 5; i++ {
		toggled.sched.SetMuted(i%2 == 0)
		toggled.run(1)
	}

	if len(plain.beats) != len(toggled.beats) {
		t.Fatalf("Expected %d beats, got %d", len(plain.beats), len(toggled.beats))
	}
	for i := range plain.beats {
		if plain.beats[i] != toggled.beats[i] {
			t.Errorf("Beat %d moved: %v vs %v", i, plain.beats[i], toggled.beats[i])
		}
	}
}

func TestScheduler_MutedSilencesMaster(t *testing.T) {
	r := newRig(t, false)
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(0.5)
	r.sched.SetMuted(true)
	// scrolling while muted must not bring the volume back
	r.sched.OnScroll(scroll.Sample{Y: 500, Scrollable: 1000})
	before := len(r.beats)
	r.run(2)

	if g := r.sched.MasterGain(); g > 1e-3 {
		t.Errorf("Expected master near 0 while muted, got %v", g)
	}
	if len(r.beats) == before {
		t.Error("Expected beats to keep being scheduled while muted")
	}

	r.sched.SetMuted(false)
	r.run(1)
	if g := r.sched.MasterGain(); !almostEqual(g, 0.35, 1e-3) {
		t.Errorf("Expected master back at 0.35 after unmute, got %v", g)
	}
}

func TestScheduler_TopOfPage(t *testing.T) {
	r := newRig(t, false)
	r.sched.OnScroll(scroll.Sample{Y: 0, Scrollable: 1000})
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(1)

	if got := r.sched.CurrentTempo(); got != 50 {
		t.Errorf("Expected 50 bpm, got %v", got)
	}
	if got := r.sched.BassPitch(); !almostEqual(got, 50, 1e-6) {
		t.Errorf("Expected 50 Hz between kicks, got %v", got)
	}
	if got := r.sched.MasterGain(); !almostEqual(got, 0.15, 1e-3) {
		t.Errorf("Expected master near 0.15, got %v", got)
	}
}

func TestScheduler_Midway(t *testing.T) {
	r := newRig(t, false)
	r.sched.OnScroll(scroll.Sample{Y: 500, Scrollable: 1000})
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	// beats at 0.1 and 0.7; 0.5 is clear of the first kick
	r.run(0.5)

	if got := r.sched.CurrentTempo(); got != 100 {
		t.Errorf("Expected 100 bpm, got %v", got)
	}
	if got := r.sched.BassPitch(); !almostEqual(got, 70, 1e-6) {
		t.Errorf("Expected 70 Hz, got %v", got)
	}
	if got := r.sched.MasterGain(); !almostEqual(got, 0.35, 0.01) {
		t.Errorf("Expected master near 0.35, got %v", got)
	}

	r.run(0.3)
	if len(r.beats) < 2 || !almostEqual(r.beats[1]-r.beats[0], 0.6, 1e-9) {
		t.Errorf("Expected 0.6s between beats at 100 bpm, got %v", r.beats)
	}
}

func TestScheduler_FadesOutNearEnd(t *testing.T) {
	r := newRig(t, false)
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(0.5)
	r.sched.OnScroll(scroll.Sample{Y: 980, Scrollable: 1000})
	r.sched.SetMuted(false)
	r.run(2)

	if g := r.sched.MasterGain(); g > 1e-3 {
		t.Errorf("Expected master faded out near the end, got %v", g)
	}
	if got := r.sched.CurrentTempo(); !almostEqual(got, Tempo(0.98), 1e-9) {
		t.Errorf("Expected tempo to keep following progress, got %v", got)
	}
}

func TestScheduler_TempoChangeLandsOnNextBeat(t *testing.T) {
	r := newRig(t, false)
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(0.2)
	// first beat at 0.1 was scheduled at 50 bpm; the next is already due at 1.3
	next := r.sched.NextEventTime()
	r.sched.OnScroll(scroll.Sample{Y: 1000, Scrollable: 2000})
	if r.sched.NextEventTime() != next {
		t.Error("Expected a tempo change to leave the pending beat time alone")
	}
	r.run(1.7)
	if len(r.beats) < 3 {
		t.Fatalf("Expected at least 3 beats, got %v", r.beats)
	}
	if !almostEqual(r.beats[1], 1.3, 1e-9) {
		t.Errorf("Expected second beat at 1.3, got %v", r.beats[1])
	}
	if !almostEqual(r.beats[2]-r.beats[1], 0.6, 1e-9) {
		t.Errorf("Expected the new 100 bpm spacing after the change, got %v", r.beats[2]-r.beats[1])
	}
}

func TestScheduler_RecoversFromFailingBeat(t *testing.T) {
	r := newRig(t, false)
	calls := 0
	r.sched.onBeat = func(at float64) {
		calls++
		if calls == 1 {
			panic("boom")
		}
	}
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(3)
	if calls < 2 {
		t.Errorf("Expected beats after a failed one, got %d calls", calls)
	}
	if r.sched.State() != Running {
		t.Errorf("Expected the loop to survive, got %s", r.sched.State())
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	r := newRig(t, false)
	if r.sched.State() != Uninitialized {
		t.Fatalf("Expected uninitialized, got %s", r.sched.State())
	}
	if err := r.sched.Init(); err != nil {
		t.Fatal(err)
	}
	if r.sched.State() != Initialized {
		t.Fatalf("Expected initialized, got %s", r.sched.State())
	}

	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	if r.ctx.State() != synth.Running || r.loop.Pending() != 1 {
		t.Fatalf("Expected running output with one pending tick, got %s / %d", r.ctx.State(), r.loop.Pending())
	}
	r.run(0.5)

	if err := r.sched.Suspend(); err != nil {
		t.Fatal(err)
	}
	if r.sched.State() != Suspended || r.ctx.State() != synth.Suspended {
		t.Fatalf("Expected suspended, got %s / %s", r.sched.State(), r.ctx.State())
	}
	if r.loop.Pending() != 0 {
		t.Errorf("Expected the tick cancelled, %d pending", r.loop.Pending())
	}
	frozen := len(r.beats)
	r.run(2)
	if len(r.beats) != frozen {
		t.Error("Expected no beats while suspended")
	}

	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	r.run(2)
	if len(r.beats) == frozen {
		t.Error("Expected beats after resuming")
	}

	if err := r.sched.Close(); err != nil {
		t.Fatal(err)
	}
	if r.sched.State() != TornDown {
		t.Errorf("Expected torn down, got %s", r.sched.State())
	}
	if err := r.sched.Start(); !errors.Is(err, ErrTornDown) {
		t.Errorf("Expected ErrTornDown, got %v", err)
	}
}

func TestScheduler_ProducesSound(t *testing.T) {
	r := newRig(t, false)
	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	peak := 0.0
	for i := 0; i < 25; i++ {
		r.ctx.Stream(r.buf)
		r.loop.Step(r.ctx.CurrentTime())
		for _, s := range r.buf {
			peak = math.Max(peak, math.Abs(s[0]))
		}
	}
	if peak == 0 {
		t.Error("Expected the bed to be audible after the first beat")
	}
}

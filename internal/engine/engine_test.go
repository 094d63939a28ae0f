package engine

import (
	"errors"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/faiface/beep"
	"github.com/iburimskiy/scrollwave/internal/control"
	"github.com/iburimskiy/scrollwave/internal/particles"
	"github.com/iburimskiy/scrollwave/internal/phase"
	"github.com/iburimskiy/scrollwave/internal/rhythm"
	"github.com/iburimskiy/scrollwave/internal/scroll"
	"github.com/iburimskiy/scrollwave/internal/sfx"
	"github.com/iburimskiy/scrollwave/internal/synth"
	"github.com/pion/logging"
)

const testRate = beep.SampleRate(8000)

func newEngine(t *testing.T, ctx *synth.Context, opts Options) *Engine {
	t.Helper()
	opts.Loggers = logging.NewDefaultLoggerFactory()
	opts.Rand = rand.New(rand.NewSource(3))
	e := New(ctx, opts)
	e.Resize(1000, 800)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_WithoutAudio(t *testing.T) {
	e := newEngine(t, nil, Options{})
	if e.Available() {
		t.Fatal("Expected no audio")
	}
	if err := e.Start(); err != nil {
		t.Errorf("Expected a silent start, got %v", err)
	}
	e.TriggerSound(sfx.DeepImpact)
	e.SetMuted(true)
	e.OnScroll(scroll.Sample{Y: 500, Scrollable: 1000})

	e.Frame(0)
	if e.Stats().Speed <= 1 {
		t.Errorf("Expected particles to keep moving without audio, speed %v", e.Stats().Speed)
	}

	buf := make([][2]float64, 64)
	if n, ok := e.Output().Stream(buf); n != 64 || !ok {
		t.Errorf("Expected silence from the output, got %d, %v", n, ok)
	}
}

func TestEngine_TriggerSoundGates(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{})

	e.TriggerSound(sfx.ImpactKick)
	if n := ctx.ActiveNodes(); n != 0 {
		t.Fatalf("Expected nothing before start, got %d nodes", n)
	}

	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	base := ctx.ActiveNodes()

	e.TriggerSound(sfx.ImpactKick)
	if n := ctx.ActiveNodes(); n != base+2 {
		t.Errorf("Expected the kick to add 2 nodes, got %d -> %d", base, n)
	}

	e.SetMuted(true)
	before := ctx.ActiveNodes()
	e.TriggerSound(sfx.ImpactKick)
	if n := ctx.ActiveNodes(); n != before {
		t.Errorf("Expected no sound while muted, got %d -> %d", before, n)
	}
}

func TestEngine_TriggerSoundSurvivesBadKind(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{})
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.TriggerSound(sfx.Kind(99))
}

func TestEngine_PhaseOverridesParticles(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{Timeline: phase.Default()})
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.OnScroll(scroll.Sample{Y: 0, Scrollable: 1000})
	before := ctx.ActiveNodes()

	e.OnScroll(scroll.Sample{Y: 200, Scrollable: 1000})
	e.Frame(0.02)

	st := e.Stats()
	if !st.Override || st.Mode != control.Yellow {
		t.Fatalf("Expected the lounge override, got %+v", st)
	}
	if st.Speed < 3 || st.Speed > 3.3 {
		t.Errorf("Expected speed 3 plus heartbeat, got %v", st.Speed)
	}
	// five chord voices and their envelope
	if n := ctx.ActiveNodes(); n != before+6 {
		t.Errorf("Expected the chord pad to start, got %d -> %d nodes", before, n)
	}

	e.ClearPhase()
	e.Frame(0.04)
	if e.Stats().Override {
		t.Error("Expected ClearPhase to drop the override")
	}
}

func TestEngine_CallToActionBurstsConfetti(t *testing.T) {
	e := newEngine(t, nil, Options{Timeline: phase.Default()})
	e.OnScroll(scroll.Sample{Y: 0, Scrollable: 1000})
	e.OnScroll(scroll.Sample{Y: 990, Scrollable: 1000})
	if n := e.field.Confetti(); n != 50 {
		t.Errorf("Expected 50 confetti pieces, got %d", n)
	}
}

func TestEngine_CloseCancelsLoops(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{})
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.Frame(0)
	if e.loop.Pending() != 2 {
		t.Fatalf("Expected the render and scheduler ticks pending, got %d", e.loop.Pending())
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if e.loop.Pending() != 0 {
		t.Errorf("Expected no pending callbacks after close, got %d", e.loop.Pending())
	}
	if ctx.State() != synth.Closed {
		t.Errorf("Expected the context closed, got %s", ctx.State())
	}
	if err := e.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestEngine_SuspendStopsBeats(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{})
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	if !e.Running() {
		t.Fatal("Expected running")
	}
	if err := e.Suspend(); err != nil {
		t.Fatal(err)
	}
	if e.Running() || e.Stats().State != rhythm.Suspended {
		t.Errorf("Expected suspended, got %s", e.Stats().State)
	}
}

func TestEngine_Offline(t *testing.T) {
	ctx := synth.NewContext(testRate)
	e := newEngine(t, ctx, Options{})
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}

	frames := 0
	s := e.Offline(60, func(float64) {
		frames++
		e.OnScroll(scroll.Sample{Y: 500, Scrollable: 1000})
	})

	buf := make([][2]float64, int(testRate))
	n, ok := s.Stream(buf)
	if n != len(buf) || !ok {
		t.Fatalf("Expected a full second, got %d, %v", n, ok)
	}
	if frames < 60 || frames > 61 {
		t.Errorf("Expected 60 frames per second of audio, got %d", frames)
	}
	if e.Stats().Beats == 0 {
		t.Error("Expected beats while rendering offline")
	}
	if e.Stats().Tempo != 100 {
		t.Errorf("Expected the scroll hook to set 100 bpm, got %v", e.Stats().Tempo)
	}

	peak := 0.0
	for _, v := range buf {
		peak = math.Max(peak, math.Abs(v[0]))
	}
	if peak == 0 {
		t.Error("Expected audible output")
	}
}

type countingSurface struct{ clears, shapes int }

func (s *countingSurface) Clear() { s.clears++ }

func (s *countingSurface) FillCircle(x, y, r float64, c color.RGBA, alpha float64) { s.shapes++ }

func (s *countingSurface) StrokeLine(x0, y0, x1, y1, w float64, c color.RGBA, alpha float64) {
	s.shapes++
}

var _ particles.Surface = (*countingSurface)(nil)

func TestEngine_Draw(t *testing.T) {
	e := newEngine(t, nil, Options{})
	e.Frame(0)
	s := &countingSurface{}
	e.Draw(s)
	if s.clears != 1 || s.shapes != 180 {
		t.Errorf("Expected one clear and 180 particles, got %d and %d", s.clears, s.shapes)
	}
}

// Package particles simulates the background particle field: point
// particles drifting under a shared heartbeat, pushed away from the pointer
// and drawn as discs or, at warp speed, as vertical streaks.
package particles

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/iburimskiy/scrollwave/internal/config"
	"github.com/iburimskiy/scrollwave/internal/control"
	"github.com/iburimskiy/scrollwave/internal/scroll"
)

var (
	Gold  = color.RGBA{R: 0xD4, G: 0xAF, B: 0x37, A: 0xFF}
	Blue  = color.RGBA{R: 0x00, G: 0xB4, B: 0xD8, A: 0xFF}
	Pink  = color.RGBA{R: 0xE9, G: 0x1E, B: 0x63, A: 0xFF}
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// Surface is what the field draws on. Alpha is the particle opacity in
// [0,1], applied on top of c.
type Surface interface {
	Clear()
	FillCircle(x, y, r float64, c color.RGBA, alpha float64)
	StrokeLine(x0, y0, x1, y1, width float64, c color.RGBA, alpha float64)
}

// Particle is one point of the field. Base is the kinematic position; X and
// Y add the transient pointer and vibration offsets.
type Particle struct {
	X, Y         float64
	BaseX, BaseY float64
	Size         float64
	SpeedX       float64
	SpeedY       float64
	Opacity      float64
}

// Field owns the particle set and the per-frame state Draw needs.
type Field struct {
	rng  *rand.Rand
	w, h float64

	particles []Particle
	confetti  []confetto

	pointer   bool
	px, py    float64
	time      float64
	heartbeat float64
	speed     float64
	mode      control.ColorMode
	progress  float64
}

// NewField creates an empty field; call Resize before stepping. A nil rng
// uses a time-seeded source.
func NewField(rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Field{rng: rng, heartbeat: 1, speed: 1}
}

// Count returns the particle count for a viewport width.
func Count(width int) int {
	if width < config.MobileBreakpoint {
		return config.MobileParticles
	}
	return config.DesktopParticles
}

// Resize discards every particle and seeds a fresh set inside the new
// bounds.
func (f *Field) Resize(width, height int) {
	f.w, f.h = float64(width), float64(height)
	n := Count(width)
	f.particles = make([]Particle, n)
	for i := range f.particles {
		f.particles[i] = Particle{
			X:       f.rng.Float64() * f.w,
			Y:       f.rng.Float64() * f.h,
			BaseX:   f.rng.Float64() * f.w,
			BaseY:   f.rng.Float64() * f.h,
			Size:    f.rng.Float64()*2 + 1,
			SpeedX:  f.rng.Float64() - 0.5,
			SpeedY:  f.rng.Float64() - 0.5,
			Opacity: f.rng.Float64()*0.5 + 0.2,
		}
	}
}

func (f *Field) Size() (w, h float64) { return f.w, f.h }

func (f *Field) Particles() []Particle { return f.particles }

func (f *Field) SetPointer(x, y float64) {
	f.pointer, f.px, f.py = true, x, y
}

func (f *Field) ClearPointer() { f.pointer = false }

// Speed returns the effective speed multiplier of the last step.
func (f *Field) Speed() float64 { return f.speed }

// Heartbeat returns the pulse value of the last step, in [0.5, 1.5].
func (f *Field) Heartbeat() float64 { return f.heartbeat }

// EffectiveSpeed combines the control snapshot, progress and heartbeat into
// the frame's speed multiplier.
func EffectiveSpeed(snap control.Snapshot, progress, heartbeat float64) float64 {
	if !snap.Override {
		return 1 + 10*scroll.Clamp01(progress) + 0.5*heartbeat
	}
	return snap.SpeedMultiplier + 0.2*heartbeat
}

// Step advances the simulation by one frame.
func (f *Field) Step(snap control.Snapshot, progress float64) {
	f.time += config.TimeStep
	f.heartbeat = math.Sin(f.time)*0.5 + 1
	f.speed = EffectiveSpeed(snap, progress, f.heartbeat)
	f.progress = scroll.Clamp01(progress)
	f.mode = control.Default
	if snap.Override {
		f.mode = snap.ColorMode
	}

	for i := range f.particles {
		p := &f.particles[i]
		p.BaseX += p.SpeedX * f.speed
		p.BaseY += p.SpeedY * f.speed
		if f.speed > config.WarpDriftSpeed {
			p.BaseY -= f.speed * 0.8
		}
		p.BaseX = wrap(p.BaseX, f.w)
		p.BaseY = wrap(p.BaseY, f.h)

		dx, dy := f.repulsion(p.BaseX, p.BaseY)
		beat := math.Cos(f.time*2+p.X) * f.speed * 0.5
		p.X = p.BaseX + dx + beat
		p.Y = p.BaseY + dy + beat
	}

	f.stepConfetti()
}

func (f *Field) repulsion(x, y float64) (dx, dy float64) {
	if !f.pointer {
		return 0, 0
	}
	ddx, ddy := f.px-x, f.py-y
	dist := math.Hypot(ddx, ddy)
	if dist >= config.InteractionRadius || dist == 0 {
		return 0, 0
	}
	push := (config.InteractionRadius - dist) / config.InteractionRadius * config.MaxPush
	return -ddx / dist * push, -ddy / dist * push
}

// wrap folds v into [0, size).
func wrap(v, size float64) float64 {
	if size <= 0 {
		return 0
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	if v >= size {
		v = 0
	}
	return v
}

// Color resolves the fill colour for the current frame. Multicolor picks
// per call.
func (f *Field) Color() color.RGBA {
	switch f.mode {
	case control.Yellow:
		return Gold
	case control.Blue:
		return Blue
	case control.Pink:
		return Pink
	case control.White:
		return White
	case control.Multicolor:
		switch r := f.rng.Float64(); {
		case r > 0.66:
			return Gold
		case r > 0.33:
			return Pink
		default:
			return Blue
		}
	}
	if f.progress > config.FallbackPinkAt {
		return Pink
	}
	return Gold
}

// Draw clears s and renders the field, then any live confetti.
func (f *Field) Draw(s Surface) {
	s.Clear()
	for _, p := range f.particles {
		c := f.Color()
		if f.speed > config.StreakSpeed {
			s.StrokeLine(p.X, p.Y, p.X, p.Y+p.Size*f.speed, p.Size, c, p.Opacity)
			continue
		}
		s.FillCircle(p.X, p.Y, p.Size*(1+f.heartbeat*0.2), c, p.Opacity)
	}
	f.drawConfetti(s)
}

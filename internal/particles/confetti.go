package particles

import (
	"image/color"
	"math"

	"github.com/iburimskiy/scrollwave/internal/config"
)

type confetto struct {
	x, y   float64
	vx, vy float64
	size   float64
	life   int
	c      color.RGBA
}

// Burst launches n confetti pieces upward from (x, y), spread across
// config.ConfettiSpreadDeg.
func (f *Field) Burst(n int, x, y float64, c color.RGBA) {
	spread := config.ConfettiSpreadDeg * math.Pi / 180
	for i := 0; i < n; i++ {
		angle := -math.Pi/2 + (f.rng.Float64()-0.5)*spread
		speed := 8 + f.rng.Float64()*8
		f.confetti = append(f.confetti, confetto{
			x:    x,
			y:    y,
			vx:   math.Cos(angle) * speed,
			vy:   math.Sin(angle) * speed,
			size: 2 + f.rng.Float64()*3,
			life: config.ConfettiTicks,
			c:    c,
		})
	}
}

// Confetti returns how many pieces are still alive.
func (f *Field) Confetti() int { return len(f.confetti) }

func (f *Field) stepConfetti() {
	live := f.confetti[:0]
	for _, c := range f.confetti {
		c.life--
		if c.life <= 0 {
			continue
		}
		c.vx *= 0.98
		c.vy = c.vy*0.98 + config.ConfettiGravity
		c.x += c.vx
		c.y += c.vy
		live = append(live, c)
	}
	f.confetti = live
}

func (f *Field) drawConfetti(s Surface) {
	for _, c := range f.confetti {
		alpha := float64(c.life) / config.ConfettiTicks
		s.FillCircle(c.x, c.y, c.size, c.c, alpha)
	}
}

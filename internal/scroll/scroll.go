// Package scroll turns scroll positions into the normalised progress
// signal that drives both the soundtrack and the particle field.
package scroll

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// Sample is one scroll reading: the offset from the top and the scrollable
// range (document height minus viewport height), both in pixels.
type Sample struct {
	Y          float64
	Scrollable float64
}

// Progress returns Y/Scrollable clamped to [0, 1]. Content that does not
// scroll yields 0 instead of NaN.
func (s Sample) Progress() float64 {
	if s.Scrollable <= 0 || math.IsNaN(s.Scrollable) || math.IsNaN(s.Y) {
		return 0
	}
	return Clamp01(s.Y / s.Scrollable)
}

// NearEnd reports whether the reading is within px of the bottom of a
// scrollable document.
func (s Sample) NearEnd(px float64) bool {
	if s.Scrollable <= 0 {
		return false
	}
	return s.Y > s.Scrollable-px
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Smoother eases a virtual scroll position toward its target with a
// critically damped spring, the way browsers smooth wheel scrolling.
type Smoother struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
	max    float64
}

func NewSmoother(fps int, scrollable float64) *Smoother {
	return &Smoother{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		max:    math.Max(scrollable, 0),
	}
}

// Scroll moves the target by delta pixels.
func (s *Smoother) Scroll(delta float64) {
	s.ScrollTo(s.target + delta)
}

func (s *Smoother) ScrollTo(y float64) {
	s.target = math.Min(math.Max(y, 0), s.max)
}

// SetScrollable changes the scrollable range, keeping the relative position.
func (s *Smoother) SetScrollable(scrollable float64) {
	scrollable = math.Max(scrollable, 0)
	if s.max > 0 {
		ratio := scrollable / s.max
		s.pos *= ratio
		s.target *= ratio
	}
	s.max = scrollable
	s.ScrollTo(s.target)
}

// Update advances the spring by one frame and returns the new reading.
func (s *Smoother) Update() Sample {
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.pos-s.target) < 0.01 && math.Abs(s.vel) < 0.01 {
		s.pos, s.vel = s.target, 0
	}
	return Sample{Y: math.Min(math.Max(s.pos, 0), s.max), Scrollable: s.max}
}

func (s *Smoother) Target() float64 { return s.target }

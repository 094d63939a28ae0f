// Package control holds the settings cell phase events write and the
// particle render loop reads once per frame.
package control

import (
	"fmt"
	"sync/atomic"
)

// ColorMode selects the particle palette.
type ColorMode int

const (
	Default ColorMode = iota
	Yellow
	Blue
	Pink
	White
	Multicolor
)

var colorModeNames = [...]string{"default", "yellow", "blue", "pink", "white", "multicolor"}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return "unknown"
	}
	return colorModeNames[m]
}

func ParseColorMode(s string) (ColorMode, error) {
	for i, name := range colorModeNames {
		if name == s {
			return ColorMode(i), nil
		}
	}
	return Default, fmt.Errorf("control: unknown color mode %q", s)
}

// Settings is the override a phase event pushes. DensityMultiplier is
// carried but does not change the live particle count.
type Settings struct {
	SpeedMultiplier   float64
	ColorMode         ColorMode
	DensityMultiplier float64
}

// Defaults are the settings in force before any phase event.
var Defaults = Settings{SpeedMultiplier: 1, ColorMode: Default, DensityMultiplier: 1}

// Snapshot is what a reader sees in one frame. Override is false until a
// phase event publishes settings, and again after Clear.
type Snapshot struct {
	Settings
	Override bool
}

// Channel is a single-slot, lock-free cell. Each write replaces the whole
// snapshot, so a reader never observes a torn record, only a stale one.
type Channel struct {
	cur atomic.Pointer[Snapshot]
}

func NewChannel() *Channel {
	c := &Channel{}
	c.Clear()
	return c
}

// Publish installs s as the active override.
func (c *Channel) Publish(s Settings) {
	c.cur.Store(&Snapshot{Settings: sanitize(s), Override: true})
}

// Clear returns the channel to the no-override state.
func (c *Channel) Clear() {
	c.cur.Store(&Snapshot{Settings: Defaults})
}

// Load returns the current snapshot.
func (c *Channel) Load() Snapshot {
	if s := c.cur.Load(); s != nil {
		return *s
	}
	return Snapshot{Settings: Defaults}
}

func sanitize(s Settings) Settings {
	if s.SpeedMultiplier < 0 || s.SpeedMultiplier != s.SpeedMultiplier {
		s.SpeedMultiplier = 0
	}
	if s.DensityMultiplier < 0 || s.DensityMultiplier != s.DensityMultiplier {
		s.DensityMultiplier = 0
	}
	if s.ColorMode < Default || s.ColorMode > Multicolor {
		s.ColorMode = Default
	}
	return s
}

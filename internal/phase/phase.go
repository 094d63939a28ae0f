// Package phase maps scroll progress onto the page's narrative sections.
// Each section is a Trigger with a start threshold and an optional end;
// crossing those thresholds emits the particle settings, sounds and
// confetti bursts the section asks for.
package phase

import (
	"sort"

	"github.com/iburimskiy/scrollwave/internal/control"
	"github.com/iburimskiy/scrollwave/internal/sfx"
)

// Event is what a trigger asks the engine to do. Zero fields do nothing.
type Event struct {
	Trigger  string
	Settings *control.Settings
	// Clear hands particle behaviour back to scroll progress.
	Clear    bool
	Sound    *sfx.Kind
	Confetti bool
}

// Trigger fires OnEnter when progress passes Start going down the page and
// OnLeaveBack when it passes Start going back up. OnEnterBack fires when
// progress comes back up past End; triggers with End <= Start have no end.
type Trigger struct {
	Name  string
	Start float64
	End   float64

	OnEnter     *Event
	OnEnterBack *Event
	OnLeaveBack *Event
}

func (t Trigger) hasEnd() bool { return t.End > t.Start }

// Timeline evaluates triggers against successive progress samples.
type Timeline struct {
	triggers []Trigger
	last     float64
	started  bool
}

func New(triggers ...Trigger) *Timeline {
	ts := append([]Trigger(nil), triggers...)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Start < ts[j].Start })
	return &Timeline{triggers: ts}
}

func (tl *Timeline) Triggers() []Trigger { return tl.triggers }

// Update returns the events fired by moving from the previous sample to
// progress, in the order a continuous scroll would have fired them. The
// first call treats every trigger already passed as entered.
func (tl *Timeline) Update(progress float64) []Event {
	prev := tl.last
	if !tl.started {
		prev = -1
		tl.started = true
	}
	tl.last = progress

	var out []Event
	switch {
	case progress > prev:
		for _, t := range tl.triggers {
			if prev < t.Start && t.Start <= progress {
				out = appendEvent(out, t.Name, t.OnEnter)
			}
		}
	case progress < prev:
		for i := len(tl.triggers) - 1; i >= 0; i-- {
			t := tl.triggers[i]
			if t.hasEnd() && progress < t.End && t.End <= prev {
				out = appendEvent(out, t.Name, t.OnEnterBack)
			}
			if progress < t.Start && t.Start <= prev {
				out = appendEvent(out, t.Name, t.OnLeaveBack)
			}
		}
	}
	return out
}

// Reset forgets the last sample so the next Update replays entries.
func (tl *Timeline) Reset() {
	tl.started = false
	tl.last = 0
}

func appendEvent(out []Event, name string, ev *Event) []Event {
	if ev == nil {
		return out
	}
	e := *ev
	e.Trigger = name
	return append(out, e)
}

func settings(speed float64, mode control.ColorMode, density float64) *control.Settings {
	return &control.Settings{SpeedMultiplier: speed, ColorMode: mode, DensityMultiplier: density}
}

func sound(k sfx.Kind) *sfx.Kind { return &k }

// Default lays out the page: three colour phases, the band section that
// freezes the field, and the pinned finale with its call to action.
func Default() *Timeline {
	lounge := settings(3, control.Yellow, 1)
	ambient := settings(1.5, control.Blue, 1)
	party := settings(5, control.Pink, 1.5)
	swoosh := &Event{Sound: sound(sfx.EtherealSwoosh)}

	return New(
		Trigger{
			Name: "lounge", Start: 0.15, End: 0.35,
			OnEnter:     &Event{Settings: lounge, Sound: sound(sfx.ChordPad)},
			OnEnterBack: &Event{Settings: lounge},
		},
		Trigger{
			Name: "ambient", Start: 0.35, End: 0.55,
			OnEnter:     &Event{Settings: ambient, Sound: sound(sfx.EtherealSwoosh)},
			OnEnterBack: &Event{Settings: ambient},
		},
		Trigger{
			Name: "party", Start: 0.55, End: 0.72,
			OnEnter:     &Event{Settings: party, Sound: sound(sfx.ImpactKick)},
			OnEnterBack: &Event{Settings: party},
		},
		Trigger{
			Name: "band", Start: 0.72,
			OnEnter: &Event{Settings: settings(0, control.Default, 0)},
		},
		Trigger{
			Name: "finale", Start: 0.85,
			OnEnter:     &Event{Settings: settings(1.8, control.Multicolor, 3), Sound: sound(sfx.CinematicImpact)},
			OnLeaveBack: &Event{Settings: settings(2, control.Default, 1)},
		},
		Trigger{Name: "line-1", Start: 0.89, OnEnter: swoosh},
		Trigger{Name: "line-2", Start: 0.91, OnEnter: swoosh},
		Trigger{Name: "line-3", Start: 0.93, OnEnter: swoosh},
		Trigger{
			Name: "cta", Start: 0.97,
			OnEnter: &Event{Sound: sound(sfx.DeepImpact), Confetti: true},
		},
	)
}

package config

import "time"

const (
	WindowWidth  = 1024
	WindowHeight = 640

	SampleRate      = 44100
	VisualRingSize  = 8192
	SmoothingFactor = 0.6
	ColorShiftSpeed = 0.01

	// Document the virtual scroll moves through, in viewport heights.
	DocumentScreens = 8
	WheelStep       = 90.0
)

// Rhythm scheduler
const (
	LookaheadSeconds = 0.1

	MinTempoBPM   = 50.0
	TempoRangeBPM = 100.0

	BaseBassHz  = 50.0
	BassRangeHz = 40.0
	HarmonicHz  = 100.0
	HarmonicMix = 0.2

	BaseVolume  = 0.15
	VolumeRange = 0.4
	// Master gain on first init before any scroll sample arrives.
	InitialVolume = 0.1

	SmoothingSeconds = 0.1
	EndFadeSeconds   = 0.2
	EndFadePixels    = 50.0

	BeatAttackSeconds = 0.01
	BeatDecaySeconds  = 0.25
	BeatFloor         = 0.001
	KickHz            = 40.0
	KickSeconds       = 0.1
	ClickSeconds      = 0.05
	ClickGain         = 0.05
)

// Particle field
const (
	MobileBreakpoint  = 768
	MobileParticles   = 80
	DesktopParticles  = 180
	InteractionRadius = 250.0
	MaxPush           = 50.0
	TimeStep          = 0.05
	WarpDriftSpeed    = 3.0
	StreakSpeed       = 4.0
	FallbackPinkAt    = 0.4

	ConfettiCount     = 50
	ConfettiTicks     = 200
	ConfettiGravity   = 0.5
	ConfettiSpreadDeg = 100.0
)

// Config carries the run-time settings the command line can change.
type Config struct {
	Width       int
	Height      int
	SampleRate  int
	Buffer      time.Duration
	StartMuted  bool
	AskForSound bool
	Seed        int64
	LogLevel    string
}

// Default returns the settings used when no flags are given.
func Default() Config {
	return Config{
		Width:       WindowWidth,
		Height:      WindowHeight,
		SampleRate:  SampleRate,
		Buffer:      time.Second / 20,
		AskForSound: true,
		LogLevel:    "warn",
	}
}

package sfx

import "errors"

// Every event connects its output chain to g.Dest last, so a half-built
// graph is never audible.

// transientClick is the card flip tick.
func transientClick(g Graph, t float64) error {
	osc := g.sine()
	env := g.Ctx.NewGain()
	err := errors.Join(
		expSweep(osc.Frequency, 2000, 500, t, 0.05),
		expSweep(env.Gain, 0.05, 0.001, t, 0.05),
	)
	env.Gain.LinearRampToValueAtTime(0, t+0.1)
	return errors.Join(err,
		osc.Connect(env),
		osc.Start(t),
		osc.Stop(t+0.1),
		env.Connect(g.Dest),
	)
}

// powerDown plays on mute: a falling tone over a closing noise burst.
func powerDown(g Graph, t float64) error {
	osc := g.sine()
	env := g.Ctx.NewGain()
	err := expSweep(osc.Frequency, 150, 10, t, 0.6)
	linearFade(env.Gain, 0.5, 0, t, 0.6)

	noise := g.noise(0.6)
	filter := g.lowpass()
	noiseEnv := g.Ctx.NewGain()
	err = errors.Join(err, expSweep(filter.Frequency, 1000, 10, t, 0.5))
	linearFade(noiseEnv.Gain, 0.3, 0, t, 0.5)

	return errors.Join(err,
		osc.Connect(env),
		osc.Start(t),
		osc.Stop(t+0.6),
		noise.Connect(filter),
		filter.Connect(noiseEnv),
		noise.Start(t),
		env.Connect(g.Dest),
		noiseEnv.Connect(g.Dest),
	)
}

// powerUp plays on unmute: one clean tone dropping out of hearing.
func powerUp(g Graph, t float64) error {
	osc := g.sine()
	env := g.Ctx.NewGain()
	return errors.Join(
		expSweep(osc.Frequency, 80, 1, t, 0.5),
		expSweep(env.Gain, 0.8, 0.001, t, 0.5),
		osc.Connect(env),
		osc.Start(t),
		osc.Stop(t+0.5),
		env.Connect(g.Dest),
	)
}

// etherealSwoosh is noise under an opening lowpass with a bell envelope.
func etherealSwoosh(g Graph, t float64) error {
	noise := g.noise(2)
	filter := g.lowpass()
	env := g.Ctx.NewGain()
	err := expSweep(filter.Frequency, 400, 1200, t, 1.5)
	linearFade(env.Gain, 0, 0.3, t, 0.5)
	return errors.Join(err,
		env.Gain.ExponentialRampToValueAtTime(0.001, t+2),
		noise.Connect(filter),
		filter.Connect(env),
		noise.Start(t),
		env.Connect(g.Dest),
	)
}

// chordFrequencies is the pad voicing: F A C E G.
var chordFrequencies = [...]float64{174.61, 220.00, 261.63, 329.63, 392.00}

// chordPad plays the five-voice sine chord under one shared envelope.
func chordPad(g Graph, t float64) error {
	env := g.Ctx.NewGain()
	linearFade(env.Gain, 0, 0.1, t, 0.1)
	err := env.Gain.ExponentialRampToValueAtTime(0.001, t+3)
	for _, f := range chordFrequencies {
		osc := g.sine()
		osc.Frequency.SetValue(f)
		err = errors.Join(err,
			osc.Connect(env),
			osc.Start(t),
			osc.Stop(t+3),
		)
	}
	return errors.Join(err, env.Connect(g.Dest))
}

// impactKick is a short pitched kick drum.
func impactKick(g Graph, t float64) error {
	osc := g.sine()
	env := g.Ctx.NewGain()
	return errors.Join(
		expSweep(osc.Frequency, 150, 40, t, 0.1),
		expSweep(env.Gain, 0.8, 0.001, t, 0.3),
		osc.Connect(env),
		osc.Start(t),
		osc.Stop(t+0.3),
		env.Connect(g.Dest),
	)
}

// deepImpact is the call-to-action reveal: a closing noise sweep over a
// falling sub-bass sine.
func deepImpact(g Graph, t float64) error {
	noise := g.noise(4)
	filter := g.lowpass()
	env := g.Ctx.NewGain()

	sub := g.sine()
	subEnv := g.Ctx.NewGain()

	return errors.Join(
		expSweep(filter.Frequency, 800, 40, t, 2),
		expSweep(env.Gain, 1, 0.001, t, 3),
		noise.Connect(filter),
		filter.Connect(env),
		noise.Start(t),
		noise.Stop(t+3),

		expSweep(sub.Frequency, 50, 10, t, 2),
		expSweep(subEnv.Gain, 0.6, 0.001, t, 2),
		sub.Connect(subEnv),
		sub.Start(t),
		sub.Stop(t+2),

		env.Connect(g.Dest),
		subEnv.Connect(g.Dest),
	)
}

// cinematicImpact marks the finale backdrop reveal.
func cinematicImpact(g Graph, t float64) error {
	osc := g.sine()
	env := g.Ctx.NewGain()

	noise := g.noise(2)
	filter := g.lowpass()
	noiseEnv := g.Ctx.NewGain()

	return errors.Join(
		expSweep(osc.Frequency, 120, 30, t, 0.8),
		expSweep(env.Gain, 1, 0.001, t, 2.5),
		osc.Connect(env),
		osc.Start(t),
		osc.Stop(t+2.5),

		expSweep(filter.Frequency, 800, 100, t, 1),
		expSweep(noiseEnv.Gain, 0.8, 0.001, t, 1.5),
		noise.Connect(filter),
		filter.Connect(noiseEnv),
		noise.Start(t),
		noise.Stop(t+1.5),

		env.Connect(g.Dest),
		noiseEnv.Connect(g.Dest),
	)
}

package synth

// Gain sums its inputs and scales them by the Gain parameter.
type Gain struct {
	node
	Gain *Param

	in         mixer
	persistent bool
	curve      scratch
}

func newGain(c *Context) *Gain {
	g := &Gain{}
	g.init(c, g)
	g.Gain = newParam(c, 1)
	return g
}

// NewGain creates a unity gain node.
func (c *Context) NewGain() *Gain { return newGain(c) }

func (g *Gain) mixer() *mixer { return &g.in }

func (g *Gain) render(out []float64, frame int64) {
	g.in.sum(out, frame)
	curve := g.curve.get(len(out))
	g.Gain.fill(curve, frame)
	for i := range out {
		out[i] *= curve[i]
	}
}

func (g *Gain) ended(int64) bool {
	return !g.persistent && g.in.drained()
}

// Persist keeps the node connected after all its inputs have ended. Long
// lived buses use it so their chains are not released between notes.
func (g *Gain) Persist() {
	g.ctx.mu.Lock()
	g.persistent = true
	g.ctx.mu.Unlock()
}

package synth

// Node is a unit in the graph. Rendering is pull-based: a node renders at
// most once per block and caches the result for fan-out.
type Node interface {
	base() *node
	// render adds this node's output for the block starting at frame into out.
	render(out []float64, frame int64)
	// ended reports whether the node will never produce output again at or
	// after frame.
	ended(frame int64) bool
}

// Input is a node other nodes can connect into.
type Input interface {
	Node
	mixer() *mixer
}

type node struct {
	ctx  *Context
	self Node

	cacheFrame int64
	cacheLen   int
	cache      []float64
}

func (n *node) init(ctx *Context, self Node) {
	n.ctx = ctx
	n.self = self
	n.cacheFrame = -1
}

func (n *node) base() *node { return n }

// Connect routes this node's output into dst.
func (n *node) Connect(dst Input) error {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	if n.ctx.state == Closed {
		return ErrClosed
	}
	if dst.base().ctx != n.ctx {
		return ErrInvalidState
	}
	dst.mixer().add(n.self)
	return nil
}

func pull(nd Node, frame int64, size int) []float64 {
	b := nd.base()
	if b.cacheFrame == frame && b.cacheLen == size {
		return b.cache[:size]
	}
	if cap(b.cache) < size {
		b.cache = make([]float64, max(size, blockSize))
	}
	buf := b.cache[:size]
	clear(buf)
	nd.render(buf, frame)
	b.cacheFrame, b.cacheLen = frame, size
	return buf
}

// mixer sums connected inputs and drops the ones that have ended.
type mixer struct {
	inputs    []Node
	connected bool
}

func (m *mixer) add(n Node) {
	for _, in := range m.inputs {
		if in == n {
			return
		}
	}
	m.inputs = append(m.inputs, n)
	m.connected = true
}

func (m *mixer) sum(out []float64, frame int64) {
	end := frame + int64(len(out))
	kept := m.inputs[:0]
	for _, in := range m.inputs {
		buf := pull(in, frame, len(out))
		for i, v := range buf {
			out[i] += v
		}
		if !in.ended(end) {
			kept = append(kept, in)
		}
	}
	clear(m.inputs[len(kept):])
	m.inputs = kept
}

// drained reports whether every input that was ever connected has ended.
func (m *mixer) drained() bool {
	return m.connected && len(m.inputs) == 0
}

// scratch is a per-node buffer for parameter curves.
type scratch []float64

func (s *scratch) get(n int) []float64 {
	if cap(*s) < n {
		*s = make([]float64, max(n, blockSize))
	}
	return (*s)[:n]
}

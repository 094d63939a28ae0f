// Package frame provides a requestAnimationFrame-style callback queue. The
// app steps it once per ebiten Update; tests step it with simulated time.
package frame

import "sync"

// Handle identifies a pending frame callback. The zero Handle is never
// issued.
type Handle uint64

// Requester schedules one-shot callbacks for the next frame.
type Requester interface {
	Request(fn func(now float64)) Handle
	Cancel(h Handle)
}

type pending struct {
	id Handle
	fn func(now float64)
}

// Loop runs requested callbacks on the next Step. Callbacks requested while
// a step is running wait for the following step.
type Loop struct {
	mu     sync.Mutex
	nextID Handle
	queue  []pending
	frames uint64

	// due holds the ids of the batch currently running that have not been
	// cancelled yet.
	due map[Handle]struct{}
}

func NewLoop() *Loop {
	return &Loop{}
}

func (l *Loop) Request(fn func(now float64)) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.queue = append(l.queue, pending{id: l.nextID, fn: fn})
	return l.nextID
}

func (l *Loop) Cancel(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.due, h)
	for i, p := range l.queue {
		if p.id == h {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return
		}
	}
}

// Step runs every callback that was pending when it was called. now is the
// frame timestamp in seconds.
func (l *Loop) Step(now float64) {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.frames++
	l.due = make(map[Handle]struct{}, len(batch))
	for _, p := range batch {
		l.due[p.id] = struct{}{}
	}
	l.mu.Unlock()

	for _, p := range batch {
		l.mu.Lock()
		_, ok := l.due[p.id]
		delete(l.due, p.id)
		l.mu.Unlock()
		if ok {
			p.fn(now)
		}
	}

	l.mu.Lock()
	l.due = nil
	l.mu.Unlock()
}

// Pending returns the number of callbacks waiting for the next step.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Frames returns how many steps have run.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

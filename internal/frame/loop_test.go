package frame

import "testing"

func TestLoop_RequestRunsOnNextStep(t *testing.T) {
	l := NewLoop()
	calls := 0
	l.Request(func(float64) { calls++ })

	l.Step(0)
	l.Step(1)
	if calls != 1 {
		t.Errorf("Expected one-shot callback to run once, ran %d times", calls)
	}
}

func TestLoop_RequestDuringStepWaitsForNextStep(t *testing.T) {
	l := NewLoop()
	var seen []float64
	var tick func(now float64)
	tick = func(now float64) {
		seen = append(seen, now)
		l.Request(tick)
	}
	l.Request(tick)

	l.Step(1)
	l.Step(2)
	l.Step(3)
	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("Expected one call per step, got %v", seen)
	}
}

func TestLoop_CancelPending(t *testing.T) {
	l := NewLoop()
	called := false
	h := l.Request(func(float64) { called = true })
	l.Cancel(h)

	l.Step(0)
	if called {
		t.Error("Expected cancelled callback not to run")
	}
	if l.Pending() != 0 {
		t.Errorf("Expected empty queue, got %d", l.Pending())
	}
}

func TestLoop_CancelWithinSameStep(t *testing.T) {
	l := NewLoop()
	called := false
	var second Handle
	l.Request(func(float64) { l.Cancel(second) })
	second = l.Request(func(float64) { called = true })

	l.Step(0)
	if called {
		t.Error("Expected callback cancelled earlier in the step not to run")
	}
}

func TestLoop_CancelZeroHandle(t *testing.T) {
	l := NewLoop()
	l.Request(func(float64) {})
	l.Cancel(0)
	if l.Pending() != 1 {
		t.Error("Expected zero handle cancel to be a no-op")
	}
}

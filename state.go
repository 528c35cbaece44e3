package lqr

import (
	"sync/atomic"
	"time"
)

// State is the Carver's atomic lifecycle state.
type State int32

const (
	StateStd State = iota
	StateResizing
	StateInflating
	StateTransposing
	StateFlattening
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStd:
		return "std"
	case StateResizing:
		return "resizing"
	case StateInflating:
		return "inflating"
	case StateTransposing:
		return "transposing"
	case StateFlattening:
		return "flattening"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s State) isLongRunning() bool {
	switch s {
	case StateResizing, StateInflating, StateTransposing, StateFlattening:
		return true
	default:
		return false
	}
}

// setState is a fair FIFO mutex built from two atomic counters: lockQueue
// hands out tickets in arrival order, lock advances one at a time, so
// callers are served in the order
// they called setState. When skipCancelled is true and the carver is
// already CANCELLED, the call is a no-op that still takes and releases a
// ticket, letting an outer cancelled call observe and report the state
// without a nested operation clobbering it.
func (c *Carver) setState(s State, skipCancelled bool) {
	ticket := atomic.AddUint64(&c.lockQueue, 1) - 1
	for atomic.LoadUint64(&c.lock) != ticket {
		time.Sleep(10 * time.Microsecond)
	}

	if skipCancelled && State(atomic.LoadInt32(&c.state)) == StateCancelled {
		atomic.AddUint64(&c.lock, 1)
		return
	}

	atomic.StoreInt32(&c.state, int32(s))
	for _, aux := range c.attached {
		aux.setState(s, skipCancelled)
	}
	atomic.AddUint64(&c.lock, 1)
}

// Cancel cooperatively cancels a running long operation on this carver. It
// is safe to call from any goroutine and is a no-op unless the carver is
// currently in one of the long-running states.
func (c *Carver) Cancel() {
	for {
		cur := atomic.LoadInt32(&c.state)
		if !State(cur).isLongRunning() {
			return
		}
		if atomic.CompareAndSwapInt32(&c.state, cur, int32(StateCancelled)) {
			return
		}
	}
}

// pollCancel is called at row granularity inside every hot loop; it returns
// ErrCancelled as soon as the state becomes CANCELLED.
func (c *Carver) pollCancel() error {
	if State(atomic.LoadInt32(&c.state)) == StateCancelled {
		return ErrCancelled
	}
	return nil
}

// State returns the carver's current lifecycle state.
func (c *Carver) State() State {
	return State(atomic.LoadInt32(&c.state))
}

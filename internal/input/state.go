// Package input reads keyboard and mouse state without blocking.
package input

import (
	"sync/atomic"
)

// State is a pollable snapshot source shared by the session and the capture
// worker. Every call reads fresh state; there is no debouncing.
type State interface {
	// CheckActionKeys reports whether the main key and one alternative are held.
	CheckActionKeys(keys ActionKeys) bool
	// CheckCancelKeys reports whether Escape or Ctrl+D is held.
	CheckCancelKeys() bool
	// CheckMouseClick reports whether mouse button 1 or 3 is pressed.
	CheckMouseClick() bool
}

// Interrupt is a State that only reports cancellation once triggered,
// typically from a SIGINT handler.
type Interrupt struct {
	fired atomic.Bool
}

// Trigger marks the interrupt as fired.
func (i *Interrupt) Trigger() { i.fired.Store(true) }

// Fired reports whether Trigger was called.
func (i *Interrupt) Fired() bool { return i.fired.Load() }

func (i *Interrupt) CheckActionKeys(ActionKeys) bool { return false }
func (i *Interrupt) CheckCancelKeys() bool           { return i.fired.Load() }
func (i *Interrupt) CheckMouseClick() bool           { return false }

type anyState []State

// Any returns a State that reports true when any of states does. Nil entries
// are skipped.
func Any(states ...State) State {
	out := make(anyState, 0, len(states))
	for _, s := range states {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (a anyState) CheckActionKeys(keys ActionKeys) bool {
	for _, s := range a {
		if s.CheckActionKeys(keys) {
			return true
		}
	}
	return false
}

func (a anyState) CheckCancelKeys() bool {
	for _, s := range a {
		if s.CheckCancelKeys() {
			return true
		}
	}
	return false
}

func (a anyState) CheckMouseClick() bool {
	for _, s := range a {
		if s.CheckMouseClick() {
			return true
		}
	}
	return false
}

// CancelPoll adapts s to the func() bool shape the encoders poll.
func CancelPoll(s State) func() bool {
	if s == nil {
		return func() bool { return false }
	}
	return s.CheckCancelKeys
}

// Package session drives a recording from countdown to encoded output.
package session

// State is a step of the recording session.
type State int

const (
	StateIdle State = iota
	StateCountdown
	StateArmed
	StateRecording
	StateStopped
	StateEncoding
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateCountdown: "countdown",
	StateArmed:     "armed",
	StateRecording: "recording",
	StateStopped:   "stopped",
	StateEncoding:  "encoding",
	StateDone:      "done",
	StateAborted:   "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// transitions lists the states reachable from each state. Any state may
// move to StateAborted.
var transitions = map[State][]State{
	StateIdle:      {StateCountdown},
	StateCountdown: {StateArmed},
	StateArmed:     {StateRecording},
	StateRecording: {StateStopped},
	StateStopped:   {StateEncoding},
	StateEncoding:  {StateDone},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	if to == StateAborted {
		return from != StateDone && from != StateAborted
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

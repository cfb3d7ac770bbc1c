// Package lifecycle provides the small atomic state machine that backs
// WorkerResource's NEW -> ALIVE -> DEAD progression, with one feature a
// plain single-shot guard doesn't offer: re-arming after death, since a
// worker resource is reusable -- a subsequent Start from Dead spins up a
// new pipe pair and child rather than erroring.
package lifecycle

import (
	"go.uber.org/atomic"
)

// State is one of NEW, ALIVE, or DEAD.
type State int32

const (
	// New is the state before the first Start.
	New State = iota
	// Alive is the state after a successful Start and before Join/Terminate.
	Alive
	// Dead is the state after Join or Terminate completes.
	Dead
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Machine is a reusable NEW/ALIVE/DEAD state holder. The zero value is
// ready to use and starts in the New state.
type Machine struct {
	state atomic.Int32
}

// Load returns the current state.
func (m *Machine) Load() State {
	return State(m.state.Load())
}

// TryStart transitions New -> Alive or Dead -> Alive (a reusable
// resource may be restarted from Dead). It reports whether the
// transition happened; the caller is expected to treat a false result
// as "already alive".
func (m *Machine) TryStart() bool {
	for {
		cur := State(m.state.Load())
		if cur == Alive {
			return false
		}
		if m.state.CAS(int32(cur), int32(Alive)) {
			return true
		}
	}
}

// TryKill transitions Alive -> Dead. It reports whether the transition
// happened; a false result means the machine was not Alive (either
// still New, or already Dead).
func (m *Machine) TryKill() bool {
	return m.state.CAS(int32(Alive), int32(Dead))
}

// ForceDead unconditionally marks the machine Dead, regardless of its
// current state. Used by Resource.Start when launching the child fails
// after TryStart has already moved the machine to Alive.
func (m *Machine) ForceDead() {
	m.state.Store(int32(Dead))
}

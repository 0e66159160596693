package common

import "errors"

// ErrReentrancy indicates that a ledger entry point was invoked while another
// operation on the same ledger was still in flight.
var ErrReentrancy = errors.New("reentrant ledger call")

// Phase tags the progress of an in-flight ledger operation. Flash-loan flows
// hand control to caller-supplied callbacks, so the ledger must know whether
// a second entry arrives from outside or from inside such a callback.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSettling
)

// Latch is a per-ledger mutual-exclusion token. Operations acquire it on
// entry and release it on return; a nested acquire fails rather than blocks,
// because ledger operations run to completion on a single logical thread and
// a nested entry can only mean a re-entrant callback.
type Latch struct {
	phase Phase
	flow  string
}

// Enter transitions the latch from Idle to InFlight, recording the flow name
// for diagnostics. It fails with ErrReentrancy when an operation is already
// in flight.
func (l *Latch) Enter(flow string) error {
	if l == nil {
		return nil
	}
	if l.phase != PhaseIdle {
		return ErrReentrancy
	}
	l.phase = PhaseInFlight
	l.flow = flow
	return nil
}

// Settle marks the post-callback verification stage of a flash-loan flow.
// It is a no-op unless the latch is held.
func (l *Latch) Settle() {
	if l == nil || l.phase != PhaseInFlight {
		return
	}
	l.phase = PhaseSettling
}

// Exit releases the latch regardless of phase.
func (l *Latch) Exit() {
	if l == nil {
		return
	}
	l.phase = PhaseIdle
	l.flow = ""
}

// Held reports whether an operation currently holds the latch.
func (l *Latch) Held() bool {
	return l != nil && l.phase != PhaseIdle
}

// Flow returns the name of the in-flight operation, if any.
func (l *Latch) Flow() string {
	if l == nil {
		return ""
	}
	return l.flow
}

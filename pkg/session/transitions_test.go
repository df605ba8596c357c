package session

import "testing"

// TestTransitionTableMatchesSpec checks spec invariant #6: every
// (from, to) pair named in spec.md §4.4 is allowed, and Closed has no
// outgoing transitions at all.
func TestTransitionTableMatchesSpec(t *testing.T) {
	allowed := map[State][]State{
		StateCreated:         {StateWaitingForSender, StateHandshaking, StateClosed},
		StateWaitingForSender: {StateHandshaking, StateClosed},
		StateHandshaking:     {StatePendingApproval, StateActive, StateRejected, StateClosed},
		StatePendingApproval: {StateActive, StateRejected, StateClosed},
		StateActive:          {StateClosed},
		StateRejected:        {StateClosed},
		StateClosed:          nil,
	}

	allStates := []State{
		StateCreated, StateWaitingForSender, StateHandshaking,
		StatePendingApproval, StateActive, StateRejected, StateClosed,
	}

	for _, from := range allStates {
		want := map[State]bool{}
		for _, to := range allowed[from] {
			want[to] = true
		}
		for _, to := range allStates {
			got := canTransition(from, to)
			if got != want[to] {
				t.Errorf("canTransition(%v, %v) = %v, want %v", from, to, got, want[to])
			}
		}
	}
}

// TestClosedIsTerminal checks that Closed has no outgoing transitions,
// called out explicitly by spec invariant #6.
func TestClosedIsTerminal(t *testing.T) {
	for _, to := range []State{
		StateCreated, StateWaitingForSender, StateHandshaking,
		StatePendingApproval, StateActive, StateRejected, StateClosed,
	} {
		if canTransition(StateClosed, to) {
			t.Errorf("canTransition(Closed, %v) = true, want false", to)
		}
	}
}

package session

// transitionTable lists every (from, to) pair the state machine allows.
// Anything absent is illegal and canTransition reports false for it.
var transitionTable = map[State]map[State]bool{
	StateCreated: {
		StateWaitingForSender: true,
		StateHandshaking:      true,
		StateClosed:           true,
	},
	StateWaitingForSender: {
		StateHandshaking: true,
		StateClosed:      true,
	},
	StateHandshaking: {
		StatePendingApproval: true,
		StateActive:          true,
		StateRejected:        true,
		StateClosed:          true,
	},
	StatePendingApproval: {
		StateActive:   true,
		StateRejected: true,
		StateClosed:   true,
	},
	StateActive: {
		StateClosed: true,
	},
	StateRejected: {
		StateClosed: true,
	},
	StateClosed: {},
}

// canTransition reports whether moving from from to to is allowed.
func canTransition(from, to State) bool {
	return transitionTable[from][to]
}

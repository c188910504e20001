package tts

// StateType represents the playback state of the sequencer.
type StateType int

const (
	// StateIdle indicates no session is playing. It is both the initial and terminal state.
	StateIdle StateType = iota
	// StatePriming indicates the first chunk is ready and about to be played.
	StatePriming
	// StatePlaying indicates a session is playing or waiting on its next chunk.
	StatePlaying
	// StatePaused indicates playback is paused.
	StatePaused
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePriming:
		return "priming"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// StateMachine manages state transitions for the sequencer. It is not
// safe for concurrent use; the sequencer guards it with its own mutex.
type StateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     map[StateType]func(from StateType)
}

// NewStateMachine creates a new state machine with valid transitions.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[StateType][]StateType{
			StateIdle:    {StatePriming, StatePaused},
			StatePriming: {StatePlaying, StatePaused, StateIdle},
			StatePlaying: {StatePaused, StateIdle},
			StatePaused:  {StatePlaying, StateIdle},
		},
		onEnter: make(map[StateType]func(StateType)),
	}
}

// CanTransition reports whether moving to the given state is allowed.
func (sm *StateMachine) CanTransition(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state == to {
			return true
		}
	}
	return false
}

// Transition attempts to transition to the specified state.
func (sm *StateMachine) Transition(to StateType) bool {
	if !sm.CanTransition(to) {
		return false
	}

	from := sm.current
	sm.current = to

	if enterFn, ok := sm.onEnter[to]; ok && enterFn != nil {
		enterFn(from)
	}
	return true
}

// Reset forces the machine back to idle.
func (sm *StateMachine) Reset() {
	if sm.current == StateIdle {
		return
	}
	from := sm.current
	sm.current = StateIdle
	if enterFn, ok := sm.onEnter[StateIdle]; ok && enterFn != nil {
		enterFn(from)
	}
}

// Current returns the current state.
func (sm *StateMachine) Current() StateType {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state StateType, fn func(from StateType)) {
	sm.onEnter[state] = fn
}

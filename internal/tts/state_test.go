package tts

import "testing"

func TestStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		name string
		path []StateType
		want bool
	}{
		{"prime and play", []StateType{StatePriming, StatePlaying}, true},
		{"pause while waiting", []StateType{StatePaused, StatePlaying}, true},
		{"pause while playing", []StateType{StatePriming, StatePlaying, StatePaused, StatePlaying}, true},
		{"back to idle", []StateType{StatePriming, StatePlaying, StateIdle}, true},
		{"idle cannot play", []StateType{StatePlaying}, false},
		{"paused cannot prime", []StateType{StatePaused, StatePriming}, false},
		{"playing cannot prime", []StateType{StatePriming, StatePlaying, StatePriming}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine()
			ok := true
			for _, st := range tt.path {
				if !sm.Transition(st) {
					ok = false
					break
				}
			}
			if ok != tt.want {
				t.Errorf("path %v allowed = %v, want %v", tt.path, ok, tt.want)
			}
		})
	}
}

func TestStateMachine_OnEnterAndReset(t *testing.T) {
	sm := NewStateMachine()
	var entered []StateType
	for _, st := range []StateType{StateIdle, StatePriming, StatePlaying} {
		st := st
		sm.OnEnter(st, func(StateType) { entered = append(entered, st) })
	}

	sm.Reset()
	if len(entered) != 0 {
		t.Errorf("Reset() from idle fired %v", entered)
	}

	sm.Transition(StatePriming)
	sm.Transition(StatePlaying)
	sm.Reset()
	if sm.Current() != StateIdle {
		t.Errorf("Current() = %v, want idle", sm.Current())
	}
	want := []StateType{StatePriming, StatePlaying, StateIdle}
	if len(entered) != len(want) {
		t.Fatalf("entered = %v, want %v", entered, want)
	}
	for i := range want {
		if entered[i] != want[i] {
			t.Errorf("entered[%d] = %v, want %v", i, entered[i], want[i])
		}
	}
}

func TestStateType_String(t *testing.T) {
	tests := map[StateType]string{
		StateIdle:     "idle",
		StatePriming:  "priming",
		StatePlaying:  "playing",
		StatePaused:   "paused",
		StateType(42): "unknown",
	}
	for st, want := range tests {
		if got := st.String(); got != want {
			t.Errorf("StateType(%d).String() = %q, want %q", int(st), got, want)
		}
	}
}

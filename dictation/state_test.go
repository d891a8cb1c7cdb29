package dictation

import "testing"

// stateRecorder records every state notification.
type stateRecorder struct {
	states []State
}

func (s *stateRecorder) SetState(state State) {
	s.states = append(s.states, state)
}

func TestController_Transitions(t *testing.T) {
	sink := &stateRecorder{}
	c := NewController(StateAwake, sink)

	if !c.Awake() {
		t.Fatal("controller should start awake")
	}
	if len(sink.states) != 1 || sink.states[0] != StateAwake {
		t.Fatalf("initial notifications = %v, want [awake]", sink.states)
	}

	if !c.Sleep() {
		t.Error("Sleep() from awake should transition")
	}
	if c.Sleep() {
		t.Error("Sleep() while asleep should not transition")
	}
	if !c.Wake() {
		t.Error("Wake() from asleep should transition")
	}
	if c.Wake() {
		t.Error("Wake() while awake should not transition")
	}

	// Exactly one notification per actual transition.
	want := []State{StateAwake, StateAsleep, StateAwake}
	if len(sink.states) != len(want) {
		t.Fatalf("notifications = %v, want %v", sink.states, want)
	}
	for i := range want {
		if sink.states[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, sink.states[i], want[i])
		}
	}
}

func TestState_String(t *testing.T) {
	if StateAwake.String() != "awake" || StateAsleep.String() != "asleep" {
		t.Errorf("State strings = %q, %q", StateAwake, StateAsleep)
	}
}

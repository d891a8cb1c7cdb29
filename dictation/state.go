package dictation

// State is the listening state of the dictation pipeline.
type State int

const (
	// StateAsleep means transcripts are still previewed but nothing is
	// typed until a wake command is heard.
	StateAsleep State = iota
	// StateAwake means recognized speech is typed at the focused window.
	StateAwake
)

// String returns a human-readable state name.
func (s State) String() string {
	if s == StateAwake {
		return "awake"
	}
	return "asleep"
}

// Controller owns the awake/asleep state. Transitions happen only on
// recognized voice commands, never on ordinary speech, and each transition
// notifies the state sink exactly once.
//
// Controller is not safe for concurrent use: the pipeline's consume loop
// is its only writer.
type Controller struct {
	state State
	sink  StateSink
}

// NewController creates a controller in the given initial state. The sink
// is notified of the initial state immediately.
func NewController(initial State, sink StateSink) *Controller {
	c := &Controller{state: initial, sink: sink}
	c.sink.SetState(initial)
	return c
}

// Awake reports whether the pipeline is currently awake.
func (c *Controller) Awake() bool {
	return c.state == StateAwake
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Sleep transitions Awake → Asleep. Returns true if a transition happened.
func (c *Controller) Sleep() bool {
	return c.set(StateAsleep)
}

// Wake transitions Asleep → Awake. Returns true if a transition happened.
func (c *Controller) Wake() bool {
	return c.set(StateAwake)
}

func (c *Controller) set(s State) bool {
	if c.state == s {
		return false
	}
	c.state = s
	c.sink.SetState(s)
	return true
}

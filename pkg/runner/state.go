package runner

// State is a Runner's position in the turn loop.
type State int

const (
	// AwaitingState waits for the next server message.
	AwaitingState State = iota
	// Deciding runs the strategy on the current view.
	Deciding
	// Sending writes the action.
	Sending
	// Finished is terminal.
	Finished
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case AwaitingState:
		return "AwaitingState"
	case Deciding:
		return "Deciding"
	case Sending:
		return "Sending"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Observer is called on every state change.
type Observer func(from, to State)

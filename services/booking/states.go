package booking

// State is a step of the booking conversation.
type State string

const (
	StateAwaitingLocation     State = "awaiting_location"
	StateAwaitingDate         State = "awaiting_date"
	StateAwaitingTime         State = "awaiting_time"
	StateAwaitingPeopleCount  State = "awaiting_people_count"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	// StateTerminated means no conversation is active for the user.
	StateTerminated State = "terminated"
)

// Active reports whether the state belongs to an in-progress conversation.
func (s State) Active() bool {
	switch s {
	case StateAwaitingLocation, StateAwaitingDate, StateAwaitingTime,
		StateAwaitingPeopleCount, StateAwaitingConfirmation:
		return true
	}
	return false
}

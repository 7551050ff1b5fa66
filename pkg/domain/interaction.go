package domain

import "fmt"

// InteractionState is one node of the interaction state machine.
type InteractionState string

const (
	StateDraft     InteractionState = "Draft"
	StateReady     InteractionState = "Ready"
	StateSent      InteractionState = "Sent"
	StateResponded InteractionState = "Responded"
	StateClosed    InteractionState = "Closed"
)

// InteractionEvent is a requested state transition.
type InteractionEvent string

const (
	EventPrepare     InteractionEvent = "Prepare"
	EventSend        InteractionEvent = "Send"
	EventReceiveReply InteractionEvent = "ReceiveReply"
	EventClose       InteractionEvent = "Close"
)

// Interaction tracks the lifecycle of one outreach to one contact about one
// opportunity.
type Interaction struct {
	InteractionId InteractionId `json:"interaction_id"`
	ContactId     ContactId     `json:"contact_id"`
	OpportunityId OpportunityId `json:"opportunity_id"`
	State         InteractionState `json:"state"`
}

// transitions is the fixed state machine of spec.md §3:
//   Draft     -> {Prepare: Ready, Close: Closed}
//   Ready     -> {Send: Sent, Close: Closed}
//   Sent      -> {ReceiveReply: Responded, Close: Closed}
//   Responded -> {Close: Closed}
//   Closed is terminal.
var transitions = map[InteractionState]map[InteractionEvent]InteractionState{
	StateDraft:     {EventPrepare: StateReady, EventClose: StateClosed},
	StateReady:     {EventSend: StateSent, EventClose: StateClosed},
	StateSent:      {EventReceiveReply: StateResponded, EventClose: StateClosed},
	StateResponded: {EventClose: StateClosed},
	StateClosed:    {},
}

// CanTransition reports whether event is permitted from the given state.
func CanTransition(state InteractionState, event InteractionEvent) (InteractionState, bool) {
	next, ok := transitions[state][event]
	return next, ok
}

// ErrInvalidTransition is returned by Apply when the event is not permitted
// from the interaction's current state.
var ErrInvalidTransition = fmt.Errorf("domain: event not permitted from current state")

// Apply returns a copy of the interaction with its state advanced by event,
// or ErrInvalidTransition if the transition is not permitted.
func (i Interaction) Apply(event InteractionEvent) (Interaction, error) {
	next, ok := CanTransition(i.State, event)
	if !ok {
		return i, ErrInvalidTransition
	}
	out := i
	out.State = next
	return out, nil
}

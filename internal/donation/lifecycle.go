package donation

import "food-rescue-api-server/internal/models"

// Event is an actor action that moves a donation through its lifecycle.
type Event string

const (
	EventAccept  Event = "accept"
	EventPickup  Event = "pickup"
	EventDeliver Event = "deliver"
)

// AssigneeField names the field a transition sets alongside the status.
type AssigneeField int

const (
	AssignNone AssigneeField = iota
	AssignBroker
	AssignCarrier
)

type transition struct {
	from     models.DonationStatus
	to       models.DonationStatus
	assignee AssigneeField
}

// Available -> Accepted -> PickedUp -> Delivered. Delivered is terminal.
var transitions = map[Event]transition{
	EventAccept:  {from: models.StatusAvailable, to: models.StatusAccepted, assignee: AssignBroker},
	EventPickup:  {from: models.StatusAccepted, to: models.StatusPickedUp, assignee: AssignCarrier},
	EventDeliver: {from: models.StatusPickedUp, to: models.StatusDelivered, assignee: AssignNone},
}

// Transition is the only place transition guards live. It returns the status the event requires,
// the status it produces and the assignee field it sets, or a *TransitionError when the event is
// not allowed from current.
func Transition(current models.DonationStatus, ev Event) (from, to models.DonationStatus, field AssigneeField, err error) {
	t, ok := transitions[ev]
	if !ok {
		return "", "", AssignNone, validationf("unknown event %q", ev)
	}
	if current != t.from {
		return "", "", AssignNone, &TransitionError{Event: ev, Current: current}
	}
	return t.from, t.to, t.assignee, nil
}

package conv

import "time"

// ActionKind distinguishes the supported special actions.
type ActionKind string

const (
	ActionMeeting ActionKind = "meeting"
	ActionEmail   ActionKind = "email"
)

// ActionState tracks the confirmation state machine for a session.
type ActionState string

const (
	ActionNone         ActionState = "NONE"
	ActionAuthRequired ActionState = "AUTH_REQUIRED"
	ActionProposed     ActionState = "PROPOSED"
	ActionBooked       ActionState = "BOOKED"
	ActionSent         ActionState = "SENT"
	ActionFailed       ActionState = "FAILED"
)

// PendingAction is the explicit per-session record that survives the
// two-turn propose/confirm exchange. It expires after a short TTL so a
// stale proposal cannot be confirmed days later.
type PendingAction struct {
	Kind           ActionKind  `json:"kind"`
	State          ActionState `json:"state"`
	ProposedStart  time.Time   `json:"proposedStart"`
	ProposedEnd    time.Time   `json:"proposedEnd"`
	RequestText    string      `json:"requestText"`
	RequesterEmail string      `json:"requesterEmail"`
	RequesterName  string      `json:"requesterName"`
	CreatedAt      time.Time   `json:"createdAt"`

	// Overwritten flags that a newer booking request replaced an earlier
	// unconfirmed one in the same session.
	Overwritten bool `json:"overwritten,omitempty"`
}

package domain

import "time"

// LifecycleAction is a change of a user's is_active flag.
type LifecycleAction string

const (
	ActionSuspended LifecycleAction = "suspended"
	ActionActivated LifecycleAction = "activated"
)

// ActiveFlag returns the is_active value the action results in.
func (a LifecycleAction) ActiveFlag() bool {
	return a == ActionActivated
}

// LifecycleEvent is the audit record emitted by the dedicated suspend and
// activate endpoints. The generic PATCH path emits none.
type LifecycleEvent struct {
	UserID     int64           `json:"user_id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Action     LifecycleAction `json:"action"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
}

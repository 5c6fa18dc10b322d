package domain

// Session is the client-side view of the authenticated actor.
type Session struct {
	IsAuthenticated bool
	User            *User
	Loading         bool
}

// NewSession returns the state at application start: unauthenticated and
// waiting for the first auth check.
func NewSession() Session {
	return Session{Loading: true}
}

// LoginResult is the canonical login envelope. Backends that answer with a
// bare user object are normalised into Success=true, User=<object>.
type LoginResult struct {
	Success bool   `json:"success"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LoginError is returned when a login attempt does not succeed.
type LoginError struct {
	Message string
	Cause   error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Cause }

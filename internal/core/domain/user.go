package domain

import (
	"errors"
	"time"
)

// UserType discriminates the specialised views over the single users collection.
type UserType string

const (
	UserTypeClient    UserType = "client"
	UserTypeVendor    UserType = "vendor"
	UserTypeFinancial UserType = "financial"
	UserTypeTechnical UserType = "technical"
	UserTypeAdmin     UserType = "admin"
)

var ErrUnknownUserType = errors.New("unknown user type")

// UserTypes lists every known discriminant in display order.
var UserTypes = []UserType{
	UserTypeClient,
	UserTypeVendor,
	UserTypeFinancial,
	UserTypeTechnical,
	UserTypeAdmin,
}

// scopedSegments maps a user type to its convenience list path under /users/.
var scopedSegments = map[UserType]string{
	UserTypeClient:    "clients",
	UserTypeVendor:    "vendors",
	UserTypeFinancial: "financial_managers",
	UserTypeTechnical: "technical_support",
}

// ParseUserType validates s against the known discriminants.
func ParseUserType(s string) (UserType, error) {
	for _, t := range UserTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownUserType
}

// ScopedSegment returns the path segment of the scoped list endpoint for t.
func (t UserType) ScopedSegment() (string, bool) {
	seg, ok := scopedSegments[t]
	return seg, ok
}

// UserTypeForSegment is the inverse of ScopedSegment.
func UserTypeForSegment(segment string) (UserType, bool) {
	for t, seg := range scopedSegments {
		if seg == segment {
			return t, true
		}
	}
	return "", false
}

// User is the generic account resource. Client, vendor, financial manager and
// technical support views differ only by UserType.
type User struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	UserType   UserType   `json:"user_type"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login"`
	DateJoined *time.Time `json:"date_joined"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// UserInput carries form data for create and update calls.
// Empty strings mean "not provided"; IsActive is only sent when non-nil.
type UserInput struct {
	Username        string   `json:"username"         validate:"required"`
	Email           string   `json:"email"            validate:"required,email"`
	FirstName       string   `json:"first_name"       validate:"required"`
	LastName        string   `json:"last_name"        validate:"required"`
	Password        string   `json:"password"         validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	UserType        UserType `json:"user_type"        validate:"required,oneof=client vendor financial technical admin"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserFilter narrows a list query. Zero values mean "no filter".
type UserFilter struct {
	Search   string
	UserType UserType
	IsActive *bool
	Ordering string
}

// Account is the backend-side record: the public user plus its password hash.
type Account struct {
	User
	PasswordHash string
}

var orderingFields = map[string]bool{
	"id":          true,
	"username":    true,
	"email":       true,
	"first_name":  true,
	"last_name":   true,
	"date_joined": true,
	"last_login":  true,
}

// Order parses Ordering ("field" or "-field"). ok is false for an empty or
// unsupported field, in which case callers sort by id.
func (f UserFilter) Order() (field string, desc bool, ok bool) {
	field = f.Ordering
	if len(field) > 0 && field[0] == '-' {
		desc = true
		field = field[1:]
	}
	if !orderingFields[field] {
		return "id", false, false
	}
	return field, desc, true
}

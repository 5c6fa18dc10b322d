package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNetwork      = errors.New("network error")
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("access forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")

	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user account is disabled")
)

// AuthRequiredDetail is the detail string a backend sends with a 403 when no
// session is present.
const AuthRequiredDetail = "Authentication credentials were not provided."

// AuthRequiredCode is the machine-readable variant of AuthRequiredDetail.
const AuthRequiredCode = "auth_required"

// ErrorKind classifies a failed request for the UI.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindAuthRequired ErrorKind = "auth_required"
	KindForbidden    ErrorKind = "forbidden"
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindServer       ErrorKind = "server"
	KindUnexpected   ErrorKind = "unexpected"
)

// RequestError is the rejection produced by the HTTP client for transport
// failures and non-2xx responses.
type RequestError struct {
	Method string
	URL    string
	// Status is zero when no response was received.
	Status int
	Body   []byte
	Detail string
	Code   string
	// FieldErrors holds server-side validation messages keyed by field,
	// forwarded verbatim.
	FieldErrors map[string][]string
	// IsAuthError distinguishes "log in first" from "not allowed" on a 403.
	IsAuthError bool
	Err         error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is lets callers match a RequestError against the taxonomy sentinels.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind() == KindNetwork
	case ErrAuthRequired:
		return e.Kind() == KindAuthRequired
	case ErrForbidden:
		return e.Kind() == KindForbidden
	case ErrValidation:
		return e.Kind() == KindValidation
	case ErrNotFound:
		return e.Kind() == KindNotFound
	case ErrServer:
		return e.Kind() == KindServer
	}
	return false
}

func (e *RequestError) Kind() ErrorKind {
	switch {
	case e.Status == 0:
		return KindNetwork
	case e.Status == http.StatusUnauthorized, e.IsAuthError:
		return KindAuthRequired
	case e.Status == http.StatusForbidden:
		return KindForbidden
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return KindValidation
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status >= 500:
		return KindServer
	}
	return KindUnexpected
}

// Message renders the error for an end user.
func (e *RequestError) Message() string {
	switch e.Kind() {
	case KindNetwork:
		return "Network error: unable to reach the server"
	case KindAuthRequired:
		return "Authentication required"
	case KindForbidden:
		if e.Detail != "" {
			return e.Detail
		}
		return "You do not have permission to perform this action"
	case KindValidation:
		if msg := FlattenFieldErrors(e.FieldErrors); msg != "" {
			return msg
		}
		if e.Detail != "" {
			return e.Detail
		}
		return "The submitted data is invalid"
	case KindNotFound:
		return "Resource not found"
	case KindServer:
		return "Server error, please try again later"
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Unexpected response (status %d)", e.Status)
}

// ValidationError carries field-level problems detected before or after a
// request was made.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return FlattenFieldErrors(e.Fields)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add appends a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field problems were recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// FlattenFieldErrors joins field errors as "field: msg; field: msg" with
// fields in lexical order.
func FlattenFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// Describe converts any error produced by the data layer into the string a
// list view shows in its error banner.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var le *LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	return err.Error()
}

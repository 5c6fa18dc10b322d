package ports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// APIRequest describes a call against the admin REST API. Path is relative
// to the configured base URL.
type APIRequest struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body   any
	Header http.Header
}

// APIResponse is a fully read 2xx response.
type APIResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *APIResponse) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Requester issues API calls. Non-2xx responses and transport failures are
// returned as *domain.RequestError.
type Requester interface {
	Do(ctx context.Context, req APIRequest) (*APIResponse, error)
}

// TokenResolver produces the CSRF token for a mutating request, or "" when
// none can be found.
type TokenResolver interface {
	Resolve(ctx context.Context) string
}

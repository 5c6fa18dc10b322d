package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
	"github.com/marketplace-admin/console/internal/infrastructure/csrf"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: srv.URL + "/api"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	if _, err := New(Options{BaseURL: "/api"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestClient_URL(t *testing.T) {
	c, _ := New(Options{BaseURL: "http://admin.local/api/"}, zerolog.Nop())
	got := c.URL("/users/7/", url.Values{"search": {"bob"}})
	if got != "http://admin.local/api/users/7/?search=bob" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestClient_Do_DefaultHeadersAndCookies(t *testing.T) {
	var seenCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login/":
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusOK)
		case "/api/users/":
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("missing json content type")
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Errorf("missing request id")
			}
			if c, err := r.Cookie("sessionid"); err == nil {
				seenCookie = c.Value
			}
			_, _ = io.WriteString(w, `[]`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx := context.Background()
	if _, err := c.Do(ctx, ports.APIRequest{Method: http.MethodPost, Path: "/login/", Body: map[string]string{"username": "a"}}); err != nil {
		t.Fatalf("login: %v", err)
	}
	resp, err := c.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: "/users/"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if string(resp.Body) != "[]" {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if seenCookie != "s1" {
		t.Fatalf("session cookie not sent back, got %q", seenCookie)
	}
}

func TestClient_Do_AttachesCSRFHeadersOnMutations(t *testing.T) {
	var postHeaders, getHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			getHeaders = r.Header.Clone()
		} else {
			postHeaders = r.Header.Clone()
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	root, _ := url.Parse(srv.URL + "/")
	c.Jar().SetCookies(root, []*http.Cookie{{Name: "csrftoken", Value: "abc123", Path: "/"}})
	c.UseTokenResolver(csrf.NewResolver(c.Jar(), c.BaseURL(), nil, nil, zerolog.Nop()))

	ctx := context.Background()
	if _, err := c.Do(ctx, ports.APIRequest{Method: http.MethodPost, Path: "/users/", Body: map[string]any{}}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := c.Do(ctx, ports.APIRequest{Method: http.MethodGet, Path: "/users/"}); err != nil {
		t.Fatalf("get: %v", err)
	}

	for _, name := range []string{"X-CSRFToken", "X-XSRF-TOKEN", "CSRF-Token", "X-CSRF-TOKEN"} {
		if got := postHeaders.Get(name); got != "abc123" {
			t.Errorf("POST header %s = %q, want abc123", name, got)
		}
		if got := getHeaders.Get(name); got != "" {
			t.Errorf("GET must not carry %s, got %q", name, got)
		}
	}
}

func TestClient_Do_MissingTokenDoesNotBlock(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.Header.Get("X-CSRFToken") != "" {
			t.Errorf("no token expected")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.UseTokenResolver(csrf.NewResolver(c.Jar(), c.BaseURL(), nil, nil, zerolog.Nop()))

	if _, err := c.Do(context.Background(), ports.APIRequest{Method: http.MethodDelete, Path: "/users/1/"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !called {
		t.Fatal("request was not sent")
	}
}

func TestClient_Do_CallerHeadersWin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/csv" {
			t.Errorf("caller Accept header not applied: %q", r.Header.Get("Accept"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Do(context.Background(), ports.APIRequest{Path: "/users/", Header: http.Header{"Accept": {"text/csv"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Do_ClassifiesErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		kind     domain.ErrorKind
		auth     bool
		sentinel error
	}{
		{"auth code", http.StatusForbidden, `{"detail":"nope","code":"auth_required"}`, domain.KindAuthRequired, true, domain.ErrAuthRequired},
		{"auth detail", http.StatusForbidden, `{"detail":"Authentication credentials were not provided."}`, domain.KindAuthRequired, true, domain.ErrAuthRequired},
		{"permission", http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`, domain.KindForbidden, false, domain.ErrForbidden},
		{"validation", http.StatusBadRequest, `{"email":["Enter a valid email address."]}`, domain.KindValidation, false, domain.ErrValidation},
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, domain.KindNotFound, false, domain.ErrNotFound},
		{"server", http.StatusInternalServerError, `<html>boom</html>`, domain.KindServer, false, domain.ErrServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Do(context.Background(), ports.APIRequest{Path: "/users/"})
			var re *domain.RequestError
			if !errors.As(err, &re) {
				t.Fatalf("expected RequestError, got %v", err)
			}
			if re.Kind() != tc.kind {
				t.Errorf("kind = %s, want %s", re.Kind(), tc.kind)
			}
			if re.IsAuthError != tc.auth {
				t.Errorf("IsAuthError = %v, want %v", re.IsAuthError, tc.auth)
			}
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("errors.Is(%v) = false", tc.sentinel)
			}
			if re.Status != tc.status || string(re.Body) != tc.body || re.Method != http.MethodGet {
				t.Errorf("request metadata not preserved: %+v", re)
			}
		})
	}
}

func TestClient_Do_ValidationFieldsVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"username":["A user with that username already exists."],"password":"Too short."}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Do(context.Background(), ports.APIRequest{Method: http.MethodPost, Path: "/users/"})
	var re *domain.RequestError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if got := re.FieldErrors["username"]; len(got) != 1 || got[0] != "A user with that username already exists." {
		t.Errorf("unexpected username errors: %v", got)
	}
	if got := re.FieldErrors["password"]; len(got) != 1 || got[0] != "Too short." {
		t.Errorf("unexpected password errors: %v", got)
	}
}

func TestClient_Do_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Do(context.Background(), ports.APIRequest{Path: "/auth-status/"})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := domain.Describe(err); got != "Network error: unable to reach the server" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRedactBody(t *testing.T) {
	got := redactBody([]byte(`{"username":"bob","password":"secret","password_confirm":"secret"}`))
	if got != `{"password":"[redacted]","password_confirm":"[redacted]","username":"bob"}` {
		t.Fatalf("unexpected redaction %s", got)
	}
}

func TestRedactBody_Nested(t *testing.T) {
	got := redactBody([]byte(`{"user":{"name":"bob","password":"secret"},"errors":[{"csrf_token":"abc"}]}`))
	if got != `{"errors":[{"csrf_token":"[redacted]"}],"user":{"name":"bob","password":"[redacted]"}}` {
		t.Fatalf("unexpected redaction %s", got)
	}
}

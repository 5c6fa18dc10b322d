package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

type stubAuthenticator struct {
	claims *ports.SessionClaims
	err    error
	seen   string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*ports.SessionClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func newContext(cookie string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSession_ValidCookieSetsClaims(t *testing.T) {
	auth := &stubAuthenticator{claims: &ports.SessionClaims{UserID: 1, Username: "alice", UserType: domain.UserTypeAdmin}}
	c, rec := newContext("tok")

	handler := Session(auth, zerolog.Nop())(func(c echo.Context) error {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Username != "alice" {
			t.Fatalf("claims not set: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if auth.seen != "tok" || rec.Code != http.StatusOK {
		t.Fatalf("unexpected outcome: token %q code %d", auth.seen, rec.Code)
	}
}

func TestSession_InvalidOrMissingCookieIsAnonymous(t *testing.T) {
	for _, cookie := range []string{"", "bad"} {
		auth := &stubAuthenticator{err: domain.ErrAuthRequired}
		c, _ := newContext(cookie)

		called := false
		handler := Session(auth, zerolog.Nop())(func(c echo.Context) error {
			called = true
			if ClaimsFrom(c) != nil {
				t.Fatalf("cookie %q: claims must be absent", cookie)
			}
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("cookie %q: handler error: %v", cookie, err)
		}
		if !called {
			t.Fatalf("cookie %q: next not called", cookie)
		}
	}
}

func TestRequireSession(t *testing.T) {
	c, _ := newContext("")
	handler := RequireSession()(func(c echo.Context) error {
		t.Fatal("should not reach next")
		return nil
	})
	if err := handler(c); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}

	c, _ = newContext("")
	c.Set(claimsKey, &ports.SessionClaims{UserID: 1})
	called := false
	handler = RequireSession()(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := handler(c); err != nil || !called {
		t.Fatalf("authenticated request rejected: %v", err)
	}
}

package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// SessionCookie carries the signed session token.
const SessionCookie = "sessionid"

const claimsKey = "session_claims"

// Authenticator validates a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.SessionClaims, error)
}

// Session reads the session cookie and, when it is valid, stores the claims
// in the context. Requests without a valid session pass through anonymous.
func Session(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			claims, err := auth.Authenticate(c.Request().Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, domain.ErrAuthRequired) {
					log.Warn().Err(err).Msg("session check failed")
				}
				return next(c)
			}
			SetClaims(c, claims)
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests with domain.ErrAuthRequired.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ClaimsFrom(c) == nil {
				return domain.ErrAuthRequired
			}
			return next(c)
		}
	}
}

// SetClaims attaches an authenticated session to the request context.
func SetClaims(c echo.Context, claims *ports.SessionClaims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom returns the session claims set by Session, or nil.
func ClaimsFrom(c echo.Context) *ports.SessionClaims {
	claims, _ := c.Get(claimsKey).(*ports.SessionClaims)
	return claims
}

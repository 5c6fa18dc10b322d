package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// RequireUserType lets through sessions whose user type is in allowed.
// It must run after RequireSession.
func RequireUserType(allowed ...domain.UserType) echo.MiddlewareFunc {
	set := make(map[domain.UserType]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return domain.ErrAuthRequired
			}
			if _, ok := set[claims.UserType]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

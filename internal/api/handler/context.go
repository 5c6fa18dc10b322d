package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/marketplace-admin/console/internal/api/middleware"
	"github.com/marketplace-admin/console/internal/core/domain"
)

// pathID reads the :id route parameter. A non-numeric id cannot match any
// user, so it is reported as not found.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}

// actor names the session user for audit records.
func actor(c echo.Context) string {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		return claims.Username
	}
	return "anonymous"
}

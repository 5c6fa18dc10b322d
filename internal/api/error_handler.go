package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// detailResponse is the error envelope for everything except field errors,
// which are rendered as {"field": ["message", ...]}.
type detailResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders validation failures as a field → messages map with status 400.
//   - Tags missing sessions with code "auth_required" on a 403.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, any) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Fields
	}

	// Echo's own errors (bind failures, CSRF rejections, unknown routes).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, detailResponse{Detail: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusForbidden, detailResponse{Detail: domain.AuthRequiredDetail, Code: domain.AuthRequiredCode}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, detailResponse{Detail: "You do not have permission to perform this action.", Code: "permission_denied"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, detailResponse{Detail: "Not found.", Code: "not_found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}}
	case errors.Is(err, domain.ErrUnknownUserType):
		return http.StatusBadRequest, map[string][]string{"user_type": {"Select a valid choice."}}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, detailResponse{Detail: "A server error occurred."}
}

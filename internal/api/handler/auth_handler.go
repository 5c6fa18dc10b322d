package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marketplace-admin/console/internal/api/middleware"
	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// CSRFContextKey is where echo's CSRF middleware leaves the current token.
const CSRFContextKey = "csrf"

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Path   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	accounts  ports.AccountService
	directory ports.DirectoryService
	cookies   CookieConfig
}

func NewAuthHandler(accounts ports.AccountService, directory ports.DirectoryService, cookies CookieConfig) *AuthHandler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &AuthHandler{accounts: accounts, directory: directory, cookies: cookies}
}

// Status handles GET /auth-status/.
//
// @Summary      Report whether the caller holds a valid session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authStatusResponse
// @Router       /auth-status/ [get]
func (h *AuthHandler) Status(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return c.JSON(http.StatusOK, authStatusResponse{})
	}

	user, err := h.directory.Get(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.JSON(http.StatusOK, authStatusResponse{})
		}
		return err
	}
	return c.JSON(http.StatusOK, authStatusResponse{Authenticated: true, User: user})
}

// Login handles POST /login/.
//
// @Summary      Open a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-CSRFToken  header    string        true  "CSRF token"
// @Param        body         body      loginRequest  true  "Credentials"
// @Success      200          {object}  domain.LoginResult
// @Failure      400          {object}  domain.LoginResult
// @Failure      403          {object}  detailResponse
// @Router       /login/ [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.LoginResult{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.LoginResult{Error: "Username and password are required"})
	}

	token, user, err := h.accounts.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, domain.LoginResult{Error: "Invalid credentials"})
	case errors.Is(err, domain.ErrInactiveUser):
		return c.JSON(http.StatusBadRequest, domain.LoginResult{Error: "Account disabled"})
	case err != nil:
		return err
	}

	c.SetCookie(h.sessionCookie(token, h.cookies.TTL))
	return c.JSON(http.StatusOK, domain.LoginResult{Success: true, User: user})
}

// Logout handles POST /logout/. It succeeds for anonymous callers too.
//
// @Summary      Close the current session
// @Tags         auth
// @Produce      json
// @Param        X-CSRFToken  header    string  true  "CSRF token"
// @Success      200          {object}  logoutResponse
// @Router       /logout/ [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		if err := h.accounts.Logout(c.Request().Context(), claims); err != nil {
			return err
		}
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, logoutResponse{Success: true})
}

// CSRFToken handles GET /csrf-token/, the fallback for clients that cannot
// read the csrftoken cookie.
//
// @Summary      Fetch a CSRF token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  csrfTokenResponse
// @Router       /csrf-token/ [get]
func (h *AuthHandler) CSRFToken(c echo.Context) error {
	token, _ := c.Get(CSRFContextKey).(string)
	return c.JSON(http.StatusOK, csrfTokenResponse{CSRFToken: token})
}

// sessionCookie builds the session cookie. A negative ttl expires it.
func (h *AuthHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     h.cookies.Path,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case ttl < 0:
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	case ttl > 0:
		cookie.MaxAge = int(ttl.Seconds())
	}
	return cookie
}

package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

type stubAccounts struct {
	loginFn  func(ctx context.Context, username, password string) (string, *domain.User, error)
	logoutFn func(ctx context.Context, claims *ports.SessionClaims) error
}

func (s *stubAccounts) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAccounts) Authenticate(context.Context, string) (*ports.SessionClaims, error) {
	return nil, domain.ErrAuthRequired
}

func (s *stubAccounts) Logout(ctx context.Context, claims *ports.SessionClaims) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, claims)
}

type stubDirectory struct {
	listFn      func(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	getFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn    func(ctx context.Context, in domain.UserInput) (*domain.User, error)
	updateFn    func(ctx context.Context, id int64, patch ports.UserPatch) (*domain.User, error)
	deleteFn    func(ctx context.Context, id int64) error
	setActiveFn func(ctx context.Context, id int64, active bool, actor string, notify bool) (*domain.User, error)
	statsFn     func(ctx context.Context, extended bool) (*domain.UserStats, error)
}

func (s *stubDirectory) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	return s.listFn(ctx, filter)
}

func (s *stubDirectory) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubDirectory) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubDirectory) Update(ctx context.Context, id int64, patch ports.UserPatch) (*domain.User, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubDirectory) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func (s *stubDirectory) SetActive(ctx context.Context, id int64, active bool, actor string, notify bool) (*domain.User, error) {
	return s.setActiveFn(ctx, id, active, actor, notify)
}

func (s *stubDirectory) Stats(ctx context.Context, extended bool) (*domain.UserStats, error) {
	return s.statsFn(ctx, extended)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds an echo context for target; body may be empty.
func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

package ports

import (
	"context"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// UserResource is the client-side CRUD and lifecycle protocol over /users/.
type UserResource interface {
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	ListScoped(ctx context.Context, userType domain.UserType) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Suspend(ctx context.Context, id int64) (*domain.User, error)
	Activate(ctx context.Context, id int64) (*domain.User, error)
	Stats(ctx context.Context, extended bool) (*domain.UserStats, error)
}

// Session is the client-side authentication state holder.
type Session interface {
	CheckAuth(ctx context.Context) bool
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	Logout(ctx context.Context) error
	Session() domain.Session
}

package ports

import (
	"context"
	"time"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// SessionClaims identifies the actor behind a session cookie.
type SessionClaims struct {
	TokenID   string
	UserID    int64
	Username  string
	UserType  domain.UserType
	ExpiresAt time.Time
}

// AccountService authenticates backend sessions.
type AccountService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Authenticate(ctx context.Context, token string) (*SessionClaims, error)
	Logout(ctx context.Context, claims *SessionClaims) error
}

// SessionRevoker remembers logged-out session ids until they would have expired.
type SessionRevoker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// DirectoryService is the backend use-case layer behind /users/.
type DirectoryService interface {
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in domain.UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	// SetActive flips is_active. When notify is set a lifecycle event is
	// dispatched on behalf of actor.
	SetActive(ctx context.Context, id int64, active bool, actor string, notify bool) (*domain.User, error)
	Stats(ctx context.Context, extended bool) (*domain.UserStats, error)
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Username        *string
	Email           *string
	FirstName       *string
	LastName        *string
	UserType        *domain.UserType
	IsActive        *bool
	Password        *string
	PasswordConfirm *string
}

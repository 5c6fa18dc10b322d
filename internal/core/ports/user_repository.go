package ports

import (
	"context"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// UserRepository persists backend accounts.
type UserRepository interface {
	// Create assigns the next integer id and stores the account.
	Create(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.Account, error)
	Update(ctx context.Context, acc *domain.Account) error
	Delete(ctx context.Context, id int64) error
}

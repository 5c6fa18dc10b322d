// Package memory holds in-process implementations of the backend
// repositories, used when no MongoDB or Redis is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

// UserRepository keeps accounts in a map guarded by a mutex.
type UserRepository struct {
	mu       sync.RWMutex
	lastID   int64
	accounts map[int64]domain.Account
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{accounts: make(map[int64]domain.Account)}
}

func (r *UserRepository) Create(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.usernameTakenLocked(acc.Username, 0) {
		return nil, domain.ErrUserExists
	}
	r.lastID++
	stored := *acc
	stored.ID = r.lastID
	r.accounts[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &acc, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.accounts {
		if acc.Username == username {
			out := acc
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List filters like the Mongo adapter: exact user_type and is_active,
// case-insensitive substring search over username, email and names.
func (r *UserRepository) List(_ context.Context, f domain.UserFilter) ([]domain.Account, error) {
	r.mu.RLock()
	out := make([]domain.Account, 0, len(r.accounts))
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, acc := range r.accounts {
		if f.UserType != "" && acc.UserType != f.UserType {
			continue
		}
		if f.IsActive != nil && acc.IsActive != *f.IsActive {
			continue
		}
		if term != "" && !matches(acc, term) {
			continue
		}
		out = append(out, acc)
	}
	r.mu.RUnlock()

	field, desc, _ := f.Order()
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], field)
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func matches(acc domain.Account, term string) bool {
	for _, v := range []string{acc.Username, acc.Email, acc.FirstName, acc.LastName} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func compare(a, b domain.Account, field string) int {
	switch field {
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "date_joined":
		return compareTime(a.DateJoined, b.DateJoined)
	case "last_login":
		return compareTime(a.LastLogin, b.LastLogin)
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// compareTime orders nil before any time.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func (r *UserRepository) Update(_ context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if r.usernameTakenLocked(acc.Username, acc.ID) {
		return domain.ErrUserExists
	}
	r.accounts[acc.ID] = *acc
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *UserRepository) usernameTakenLocked(username string, selfID int64) bool {
	for id, acc := range r.accounts {
		if id != selfID && acc.Username == username {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Backend stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	nextID    int64
	accounts  map[int64]*domain.Account
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{accounts: make(map[int64]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == acc.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	c := cloneAccount(acc)
	c.ID = r.nextID
	r.accounts[c.ID] = c
	return cloneAccount(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f domain.UserFilter) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Account{}
	for id := int64(1); id <= r.nextID; id++ {
		a, ok := r.accounts[id]
		if !ok {
			continue
		}
		if f.UserType != "" && a.UserType != f.UserType {
			continue
		}
		if f.Search != "" && !strings.Contains(a.Username, f.Search) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.accounts[acc.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.accounts[acc.ID] = cloneAccount(acc)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.accounts, id)
	return nil
}

// seed stores an account with a real bcrypt hash (MinCost keeps tests fast).
func (r *stubUserRepo) seed(u domain.User, password string) *domain.Account {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	acc, err := r.Create(context.Background(), &domain.Account{User: u, PasswordHash: string(hash)})
	if err != nil {
		panic(err)
	}
	return acc
}

type stubRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

func (r *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = ttl
	return nil
}

type stubDispatcher struct {
	events []domain.LifecycleEvent
}

func (d *stubDispatcher) Enqueue(e domain.LifecycleEvent) {
	d.events = append(d.events, e)
}

type stubLifecycleRepo struct {
	insertErr error
	inserted  []domain.LifecycleEvent
}

func (r *stubLifecycleRepo) Insert(_ context.Context, e *domain.LifecycleEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, *e)
	return nil
}

func (r *stubLifecycleRepo) ListByUser(_ context.Context, id int64) ([]domain.LifecycleEvent, error) {
	var out []domain.LifecycleEvent
	for _, e := range r.inserted {
		if e.UserID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

var errStubFailure = errors.New("stub failure")

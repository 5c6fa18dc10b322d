package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marketplace-admin/console/internal/core/ports"
)

// Revoker remembers revoked session ids until their ttl passes. Expired
// entries are pruned lazily on write.
type Revoker struct {
	mu      sync.Mutex
	until   map[string]time.Time
	nowFunc func() time.Time
}

var _ ports.SessionRevoker = (*Revoker)(nil)

func NewRevoker() *Revoker {
	return &Revoker{until: make(map[string]time.Time), nowFunc: time.Now}
}

func (r *Revoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.until[tokenID]
	return ok && r.nowFunc().Before(exp), nil
}

func (r *Revoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFunc()
	for id, exp := range r.until {
		if !now.Before(exp) {
			delete(r.until, id)
		}
	}
	r.until[tokenID] = now.Add(ttl)
	return nil
}

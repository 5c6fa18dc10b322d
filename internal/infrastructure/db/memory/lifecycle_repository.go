package memory

import (
	"context"
	"sync"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

type LifecycleRepository struct {
	mu     sync.RWMutex
	events []domain.LifecycleEvent
}

var _ ports.LifecycleRepository = (*LifecycleRepository)(nil)

func NewLifecycleRepository() *LifecycleRepository {
	return &LifecycleRepository{}
}

func (r *LifecycleRepository) Insert(_ context.Context, event *domain.LifecycleEvent) error {
	r.mu.Lock()
	r.events = append(r.events, *event)
	r.mu.Unlock()
	return nil
}

func (r *LifecycleRepository) ListByUser(_ context.Context, userID int64) ([]domain.LifecycleEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.LifecycleEvent{}
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

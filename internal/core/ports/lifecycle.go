package ports

import (
	"context"

	"github.com/marketplace-admin/console/internal/core/domain"
)

// LifecycleRepository stores the suspend/activate audit trail.
type LifecycleRepository interface {
	Insert(ctx context.Context, event *domain.LifecycleEvent) error
	ListByUser(ctx context.Context, userID int64) ([]domain.LifecycleEvent, error)
}

// LifecycleService handles a single lifecycle event after it was dequeued.
type LifecycleService interface {
	Process(ctx context.Context, event domain.LifecycleEvent) error
}

// LifecycleDispatcher hands lifecycle events to background workers.
type LifecycleDispatcher interface {
	Enqueue(event domain.LifecycleEvent)
}

package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

const collectionLifecycleEvents = "lifecycle_events"

// LifecycleRepository is the suspend/activate audit trail.
type LifecycleRepository struct {
	col *mongo.Collection
}

var _ ports.LifecycleRepository = (*LifecycleRepository)(nil)

func NewLifecycleRepository(db *mongo.Database) *LifecycleRepository {
	return &LifecycleRepository{col: db.Collection(collectionLifecycleEvents)}
}

// Insert persists an event to the audit collection.
func (r *LifecycleRepository) Insert(ctx context.Context, event *domain.LifecycleEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"user_id":      event.UserID,
		"username":     event.Username,
		"email":        event.Email,
		"action":       string(event.Action),
		"actor":        event.Actor,
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert lifecycle event: %w", err)
	}
	return nil
}

// ListByUser returns a user's events, oldest first.
func (r *LifecycleRepository) ListByUser(ctx context.Context, userID int64) ([]domain.LifecycleEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list lifecycle events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []struct {
		UserID     int64     `bson:"user_id"`
		Username   string    `bson:"username"`
		Email      string    `bson:"email"`
		Action     string    `bson:"action"`
		Actor      string    `bson:"actor"`
		OccurredAt time.Time `bson:"occurred_at"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode lifecycle events: %w", err)
	}

	out := make([]domain.LifecycleEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.LifecycleEvent{
			UserID:     d.UserID,
			Username:   d.Username,
			Email:      d.Email,
			Action:     domain.LifecycleAction(d.Action),
			Actor:      d.Actor,
			OccurredAt: d.OccurredAt,
		})
	}
	return out, nil
}

// EnsureIndexes indexes events by user and time.
func (r *LifecycleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}

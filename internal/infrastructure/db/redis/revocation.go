package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketplace-admin/console/internal/core/ports"
)

const revokedPrefix = "session:revoked:"

// Revoker keeps logged-out session ids in Redis until the session would have
// expired. Key format: session:revoked:<jti>
type Revoker struct {
	client redis.Cmdable
}

var _ ports.SessionRevoker = (*Revoker)(nil)

func NewRevoker(client redis.Cmdable) *Revoker {
	return &Revoker{client: client}
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *Revoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func revokedKey(tokenID string) string {
	return revokedPrefix + tokenID
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:denylist:"

// Revoker tracks revoked token ids until the token would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Denylist struct {
	redis *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{redis: client}
}

func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("empty token id")
	}
	if !expiresAt.After(time.Now()) {
		return nil
	}
	args := redis.SetArgs{ExpireAt: expiresAt.Truncate(time.Second).Add(time.Second)}
	if err := d.redis.SetArgs(ctx, denylistPrefix+tokenID, 1, args).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.redis.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check denylist: %w", err)
	}
	return n > 0, nil
}

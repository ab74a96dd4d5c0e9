package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDenylist keeps revoked access-token ids as expiring Redis keys.
type RedisDenylist struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisDenylist(rdb *redis.Client, prefix string) *RedisDenylist {
	if prefix == "" {
		prefix = "deny"
	}
	return &RedisDenylist{rdb: rdb, prefix: prefix}
}

// Deny stores jti until the token would have expired anyway.  Tokens that
// are already past until are not recorded.
func (d *RedisDenylist) Deny(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, d.prefix+":"+jti, 1, ttl).Err()
}

func (d *RedisDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.prefix+":"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

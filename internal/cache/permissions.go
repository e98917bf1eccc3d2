package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chamados-io/chamados-ce/internal/auth"
)

// PermissionCache is a short-TTL cache for resolved permission sets at the
// request boundary. Resolution itself stays pure and uncached; this only
// spares the JSON-claims walk on hot paths. Misses and Redis failures both
// fall through to a fresh resolve, so a stale or unavailable cache can slow
// requests but never change an authorization answer beyond the TTL window.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

func key(userID string) string {
	return "chamados:perms:" + userID
}

// Get returns the cached set for the user, or ok=false on miss or error.
func (c *PermissionCache) Get(ctx context.Context, userID string) (auth.PermissionSet, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var perms []auth.Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, false
	}
	return auth.NewPermissionSet(perms...), true
}

// Set stores the user's resolved set for the cache TTL.
func (c *PermissionCache) Set(ctx context.Context, userID string, perms auth.PermissionSet) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(perms.List())
	if err != nil {
		return fmt.Errorf("marshal permission set: %w", err)
	}
	if err := c.client.Set(ctx, key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache permission set: %w", err)
	}
	return nil
}

// Invalidate drops the user's cached set, e.g. after a role change.
func (c *PermissionCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, key(userID)).Err()
}

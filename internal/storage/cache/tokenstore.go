// Package cache adds a Redis read-aside layer in front of the token
// registry. Listing a user's tokens is the hot path of every fan-out;
// everything that mutates the registry invalidates the user's cache entry.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/devmantra/tasker-push-service/pkg/notification"
	"github.com/devmantra/tasker-push-service/pkg/push"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// realStore is the union of the registry interfaces the decorator forwards
// to. The Firestore store satisfies both.
type realStore interface {
	push.TokenStore
	push.TokenRegistrar
}

// CachedTokenStore is a Decorator that adds read-aside caching to a token
// registry.
type CachedTokenStore struct {
	realStore realStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(store realStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: store,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) ListTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	key := s.cacheKey(userID)

	// 1. Try Cache
	var cached []notification.DeviceToken
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	// 2. Fallback to the source of truth.
	fresh, err := s.realStore.ListTokens(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 3. Populate cache, fire and forget. If Redis is down we just keep
	// serving from the real store.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

// QueryStaleTokens always bypasses the cache: the sweep decides deletions
// against the source of truth, never against a possibly stale snapshot.
func (s *CachedTokenStore) QueryStaleTokens(ctx context.Context, userID string, before time.Time) ([]notification.DeviceToken, error) {
	return s.realStore.QueryStaleTokens(ctx, userID, before)
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) DeleteTokens(ctx context.Context, userID string, tokens []string) (int, error) {
	deleted, err := s.realStore.DeleteTokens(ctx, userID, tokens)
	if err != nil {
		return deleted, err
	}
	// Even though the DB write succeeded, the cache must be cleared so a
	// dead token stops receiving sends immediately.
	return deleted, s.invalidate(ctx, userID)
}

func (s *CachedTokenStore) RegisterToken(ctx context.Context, userID string, token string) error {
	if err := s.realStore.RegisterToken(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *CachedTokenStore) UnregisterToken(ctx context.Context, userID string, token string) error {
	if err := s.realStore.UnregisterToken(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	// Delete the key; the next ListTokens is forced back to Firestore.
	return s.cache.Del(ctx, s.cacheKey(userID))
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("push:tokens:%s", userID)
}

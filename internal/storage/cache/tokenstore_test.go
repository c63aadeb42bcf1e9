package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devmantra/tasker-push-service/internal/storage/cache"
	"github.com/devmantra/tasker-push-service/pkg/notification"
)

// --- Mocks ---

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}
func (m *MockCache) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockRealStore struct {
	mock.Mock
}

func (m *MockRealStore) ListTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.DeviceToken), args.Error(1)
}
func (m *MockRealStore) DeleteTokens(ctx context.Context, userID string, tokens []string) (int, error) {
	args := m.Called(ctx, userID, tokens)
	return args.Int(0), args.Error(1)
}
func (m *MockRealStore) QueryStaleTokens(ctx context.Context, userID string, before time.Time) ([]notification.DeviceToken, error) {
	args := m.Called(ctx, userID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.DeviceToken), args.Error(1)
}
func (m *MockRealStore) RegisterToken(ctx context.Context, userID string, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}
func (m *MockRealStore) UnregisterToken(ctx context.Context, userID string, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func TestCachedStore_ImmediateInvalidation(t *testing.T) {
	ctx := context.Background()
	mockCache := new(MockCache)
	mockDB := new(MockRealStore)

	store := cache.NewCachedTokenStore(mockDB, mockCache, 1*time.Hour)
	cacheKey := "push:tokens:user-1"

	t.Run("Delete invalidates cache immediately", func(t *testing.T) {
		// 1. Expect DB call
		mockDB.On("DeleteTokens", ctx, "user-1", []string{"dead-token"}).Return(1, nil)

		// 2. Expect Cache DELETE (Crucial!)
		mockCache.On("Del", ctx, cacheKey).Return(nil)

		deleted, err := store.DeleteTokens(ctx, "user-1", []string{"dead-token"})

		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		mockDB.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("Subsequent ListTokens hits DB (Cache Miss)", func(t *testing.T) {
		// 1. Expect Cache Miss (simulating the delete worked)
		mockCache.On("Get", ctx, cacheKey, mock.Anything).Return(assert.AnError)

		// 2. Expect DB Read (Source of Truth)
		fresh := []notification.DeviceToken{{Token: "t1"}}
		mockDB.On("ListTokens", ctx, "user-1").Return(fresh, nil)

		// 3. Expect Cache SET (Refilling)
		mockCache.On("Set", ctx, cacheKey, fresh, mock.Anything).Return(nil)

		tokens, err := store.ListTokens(ctx, "user-1")

		require.NoError(t, err)
		require.Len(t, tokens, 1)
		mockDB.AssertExpectations(t)
	})
}

func TestCachedStore_RegisterInvalidates(t *testing.T) {
	ctx := context.Background()
	mockCache := new(MockCache)
	mockDB := new(MockRealStore)
	store := cache.NewCachedTokenStore(mockDB, mockCache, 1*time.Hour)

	mockDB.On("RegisterToken", ctx, "user-2", "new-token").Return(nil)
	mockCache.On("Del", ctx, "push:tokens:user-2").Return(nil)

	require.NoError(t, store.RegisterToken(ctx, "user-2", "new-token"))
	mockDB.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestCachedStore_StaleQueryBypassesCache(t *testing.T) {
	ctx := context.Background()
	mockCache := new(MockCache)
	mockDB := new(MockRealStore)
	store := cache.NewCachedTokenStore(mockDB, mockCache, 1*time.Hour)

	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	stale := []notification.DeviceToken{{Token: "old", LastUsed: cutoff.Add(-time.Hour)}}
	mockDB.On("QueryStaleTokens", ctx, "user-3", cutoff).Return(stale, nil)

	tokens, err := store.QueryStaleTokens(ctx, "user-3", cutoff)

	require.NoError(t, err)
	assert.Equal(t, stale, tokens)
	// The sweep must decide against the source of truth, never the cache.
	mockCache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

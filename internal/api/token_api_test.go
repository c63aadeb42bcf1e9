package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/devmantra/tasker-push-service/internal/api"
)

// --- Mocks ---

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterToken(ctx context.Context, userID string, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}
func (m *MockRegistrar) UnregisterToken(ctx context.Context, userID string, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

// --- Setup ---

func setupAPI(t *testing.T) (*api.TokenAPI, *MockRegistrar) {
	t.Helper()
	mockRegistrar := new(MockRegistrar)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewTokenAPI(mockRegistrar, logger), mockRegistrar
}

// withUser injects the user ID the auth middleware would have resolved.
func withUser(req *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

// --- Tests ---

func TestRegisterToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		apiHandler, mockRegistrar := setupAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "fcm-token-abc"})

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockRegistrar.On("RegisterToken", mock.Anything, "user-123", "fcm-token-abc").Return(nil)

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockRegistrar.AssertExpectations(t)
	})

	t.Run("Missing token is rejected", func(t *testing.T) {
		apiHandler, mockRegistrar := setupAPI(t)
		body, _ := json.Marshal(map[string]string{})

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRegistrar.AssertNotCalled(t, "RegisterToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No authenticated user", func(t *testing.T) {
		apiHandler, _ := setupAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "fcm-token-abc"})

		req := httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body))
		w := httptest.NewRecorder()

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Storage failure surfaces as 500", func(t *testing.T) {
		apiHandler, mockRegistrar := setupAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "fcm-token-abc"})

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/register", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockRegistrar.On("RegisterToken", mock.Anything, "user-123", "fcm-token-abc").Return(assert.AnError)

		apiHandler.RegisterToken(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUnregisterToken(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		apiHandler, mockRegistrar := setupAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "fcm-token-abc"})

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/unregister", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockRegistrar.On("UnregisterToken", mock.Anything, "user-123", "fcm-token-abc").Return(nil)

		apiHandler.UnregisterToken(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockRegistrar.AssertExpectations(t)
	})

	t.Run("Storage failure is logged but still succeeds", func(t *testing.T) {
		apiHandler, mockRegistrar := setupAPI(t)
		body, _ := json.Marshal(map[string]string{"token": "fcm-token-abc"})

		req := withUser(httptest.NewRequest("POST", "/api/v1/tokens/unregister", bytes.NewReader(body)), "user-123")
		w := httptest.NewRecorder()

		mockRegistrar.On("UnregisterToken", mock.Anything, "user-123", "fcm-token-abc").Return(assert.AnError)

		apiHandler.UnregisterToken(w, req)

		// Unregister stays idempotent from the client's point of view.
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmantra/tasker-push-service/internal/pipeline"
	"github.com/devmantra/tasker-push-service/pkg/notification"
)

func TestCreatedEventTransformer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	validEvent := notification.CreatedEvent{
		UserID:         "user-123",
		NotificationID: "notif-456",
		Record:         notification.NotificationRecord{Title: "Reminder"},
	}
	validPayload, err := json.Marshal(validEvent)
	require.NoError(t, err)

	missingUserPayload, err := json.Marshal(notification.CreatedEvent{NotificationID: "notif-456"})
	require.NoError(t, err)

	missingIDPayload, err := json.Marshal(notification.CreatedEvent{UserID: "user-123"})
	require.NoError(t, err)

	testCases := []struct {
		name                  string
		inputMessage          *messagepipeline.Message
		expectError           bool
		expectedErrorContains string
	}{
		{
			name: "Happy Path - Valid Event",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-1", Payload: validPayload},
			},
			expectError: false,
		},
		{
			name: "Failure - Malformed JSON",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-2", Payload: []byte("not-json")},
			},
			expectError:           true,
			expectedErrorContains: "failed to unmarshal created event",
		},
		{
			name: "Failure - Missing User ID",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-3", Payload: missingUserPayload},
			},
			expectError:           true,
			expectedErrorContains: "no user id",
		},
		{
			name: "Failure - Missing Notification ID",
			inputMessage: &messagepipeline.Message{
				MessageData: messagepipeline.MessageData{ID: "msg-4", Payload: missingIDPayload},
			},
			expectError:           true,
			expectedErrorContains: "no notification id",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, skip, err := pipeline.CreatedEventTransformer(ctx, tc.inputMessage)

			if tc.expectError {
				require.Error(t, err)
				assert.True(t, skip)
				assert.Contains(t, err.Error(), tc.expectedErrorContains)
			} else {
				require.NoError(t, err)
				assert.False(t, skip)
				assert.Equal(t, "user-123", event.UserID)
				assert.Equal(t, "notif-456", event.NotificationID)
			}
		})
	}
}

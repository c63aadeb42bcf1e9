// Package pipeline contains the core message processing components for the
// service: the transformer that decodes "notification record created"
// events and the processor that fans them out to the user's devices.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/devmantra/tasker-push-service/pkg/notification"
)

// CreatedEventTransformer is a dataflow Transformer that safely unmarshals
// and validates a raw message payload into a notification.CreatedEvent.
//
// A message that cannot be decoded, or that is missing its storage location
// (user + record ID), is skipped so the StreamingService can handle the
// Nack/DLQ logic rather than retrying a poison message forever.
func CreatedEventTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notification.CreatedEvent, bool, error) {
	var event notification.CreatedEvent

	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal created event from message %s: %w", msg.ID, err)
	}

	if event.UserID == "" {
		return nil, true, fmt.Errorf("created event in message %s has no user id", msg.ID)
	}
	if event.NotificationID == "" {
		return nil, true, fmt.Errorf("created event in message %s has no notification id", msg.ID)
	}

	return &event, false, nil
}

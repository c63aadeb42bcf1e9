// Package fcm implements the push.Gateway interface over Firebase Cloud
// Messaging multicast sends.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"

	"github.com/devmantra/tasker-push-service/pkg/notification"
	"github.com/devmantra/tasker-push-service/pkg/push"
	"github.com/devmantra/tasker-push-service/pushservice/config"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Gateway sends one multicast message per batch and classifies the per-token
// responses into the engine's outcome taxonomy.
type Gateway struct {
	client MessagingClient // *messaging.Client satisfies this
	cfg    config.PushConfig
	logger *slog.Logger
}

func NewGateway(client MessagingClient, cfg config.PushConfig, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "FCMGateway"),
	}
}

// Send submits the whole token list in a single multicast call. The returned
// outcomes preserve input order and length. A non-nil error means the batch
// call itself failed and no per-token classification happened.
func (g *Gateway) Send(ctx context.Context, tokens []string, payload notification.Payload) ([]push.DispatchOutcome, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	badge := g.cfg.Badge
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   payload.Data,
		Notification: &messaging.Notification{
			Title:    payload.Title,
			Body:     payload.Body,
			ImageURL: payload.ImageURL,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     g.cfg.Sound,
				ChannelID: g.cfg.ChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: g.cfg.Sound,
					Badge: &badge,
				},
			},
		},
	}

	br, err := g.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("fcm transport failed: %w", err)
	}

	outcomes := make([]push.DispatchOutcome, len(br.Responses))
	for idx, resp := range br.Responses {
		outcome := push.DispatchOutcome{Token: tokens[idx]}
		if resp.Success {
			outcome.Delivered = true
			outcomes[idx] = outcome
			continue
		}
		outcome.Class = classify(resp.Error)
		if resp.Error != nil {
			outcome.Code = resp.Error.Error()
		}
		outcomes[idx] = outcome
	}

	g.logger.Debug("Multicast batch completed",
		"success_count", br.SuccessCount,
		"failure_count", br.FailureCount,
	)
	return outcomes, nil
}

// classify maps an FCM send error onto the engine's error classes. Anything
// we cannot positively identify is ClassUnknown, which the dispatcher treats
// as transient: an ambiguous provider error must never delete a token.
func classify(err error) push.ErrorClass {
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err), messaging.IsInvalidArgument(err):
		return push.ClassPermanent
	case messaging.IsUnavailable(err), messaging.IsInternal(err), messaging.IsQuotaExceeded(err):
		return push.ClassTransient
	default:
		return push.ClassUnknown
	}
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/devmantra/tasker-push-service/pkg/notification"
	"github.com/devmantra/tasker-push-service/pkg/push"
)

// State is the terminal outcome of one dispatch invocation. All three are
// non-retrying: the engine never schedules a second delivery attempt.
type State string

const (
	StateNoTokens State = "no-tokens"
	StateSent     State = "sent"
	StateError    State = "error"
)

// Result summarises one dispatch invocation for logging and tests.
type Result struct {
	State         State
	SuccessCount  int
	FailureCount  int
	DeletedTokens int
	// Err is set when State is StateError.
	Err error
	// CleanupErr records a token-deletion failure. It does not change the
	// delivery portion of the result.
	CleanupErr error
}

// Dispatcher performs the fan-out for one created notification record:
// resolve the user's tokens, send one batch through the gateway, and delete
// every token the provider reports as permanently invalid.
//
// It is stateless per invocation; concurrent invocations for the same user
// are safe because deletions are set-based and commutative.
type Dispatcher struct {
	gateway     push.Gateway
	store       push.TokenStore
	title       string
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewDispatcher(
	gateway push.Gateway,
	store push.TokenStore,
	defaultTitle string,
	callTimeout time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		gateway:     gateway,
		store:       store,
		title:       defaultTitle,
		callTimeout: callTimeout,
		logger:      logger.With("component", "Dispatcher"),
	}
}

// Dispatch runs one fan-out invocation end to end.
func (d *Dispatcher) Dispatch(ctx context.Context, event *notification.CreatedEvent) Result {
	// 1. Resolve the user's registered tokens.
	tokens, err := d.listTokens(ctx, event.UserID)
	if err != nil {
		return Result{State: StateError, Err: fmt.Errorf("list tokens: %w", err)}
	}
	if len(tokens) == 0 {
		// Documented no-op: the gateway is never invoked.
		return Result{State: StateNoTokens}
	}

	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	// 2. One batch call for the whole token list.
	payload := BuildPayload(event, d.title)
	outcomes, err := d.send(ctx, values, payload)
	if err != nil {
		// Whole-batch failure: nothing was classified, so nothing is deleted.
		return Result{State: StateError, Err: fmt.Errorf("gateway send: %w", err)}
	}

	result := Result{State: StateSent}
	var invalid []string
	for _, outcome := range outcomes {
		if outcome.Delivered {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		// Only a permanent rejection removes the token. Transient and
		// unknown failures are left for the provider's next attempt.
		if outcome.PermanentFailure() {
			invalid = append(invalid, outcome.Token)
		}
	}

	// 3. Reconcile the registry in one user-scoped batch.
	if len(invalid) > 0 {
		deleted, err := d.deleteTokens(ctx, event.UserID, invalid)
		if err != nil {
			result.CleanupErr = fmt.Errorf("delete invalid tokens: %w", err)
		} else {
			result.DeletedTokens = deleted
		}
	}

	return result
}

func (d *Dispatcher) listTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	return d.store.ListTokens(ctx, userID)
}

func (d *Dispatcher) send(ctx context.Context, tokens []string, payload notification.Payload) ([]push.DispatchOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	return d.gateway.Send(ctx, tokens, payload)
}

func (d *Dispatcher) deleteTokens(ctx context.Context, userID string, tokens []string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()
	return d.store.DeleteTokens(ctx, userID, tokens)
}

// NewProcessor wraps a Dispatcher as a pipeline StreamProcessor.
//
// The processor always returns nil: every failure is logged with the
// triggering record's IDs and the invocation resolves, so a broken gateway
// or store cannot wedge the subscription. Redelivered events are tolerated
// because deleting an already-deleted token is a no-op.
func NewProcessor(dispatcher *Dispatcher, logger *slog.Logger) messagepipeline.StreamProcessor[notification.CreatedEvent] {
	return func(ctx context.Context, original messagepipeline.Message, event *notification.CreatedEvent) error {
		procLogger := logger.With(
			"user_id", event.UserID,
			"notification_id", event.NotificationID,
			"pubsub_msg_id", original.ID,
		)

		result := dispatcher.Dispatch(ctx, event)
		switch result.State {
		case StateNoTokens:
			procLogger.Info("No tokens registered for user; nothing to send.")
		case StateSent:
			procLogger.Info("Notification dispatched",
				"success_count", result.SuccessCount,
				"failure_count", result.FailureCount,
				"deleted_tokens", result.DeletedTokens,
			)
			if result.CleanupErr != nil {
				procLogger.Error("Failed to delete invalid tokens", "err", result.CleanupErr)
			}
		case StateError:
			procLogger.Error("Dispatch failed", "err", result.Err)
		}

		return nil
	}
}

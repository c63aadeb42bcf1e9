// Package push contains the public interfaces of the fan-out engine: the
// token registry it reconciles and the provider gateway it dispatches
// through. Implementations live in internal/storage and internal/platform.
package push

import (
	"context"
	"time"

	"github.com/devmantra/tasker-push-service/pkg/notification"
)

// ErrorClass categorises a per-token delivery failure. Only ClassPermanent
// drives token deletion; ClassUnknown is handled exactly like
// ClassTransient so an ambiguous provider error can never destroy a token.
type ErrorClass string

const (
	ClassPermanent ErrorClass = "permanent"
	ClassTransient ErrorClass = "transient"
	ClassUnknown   ErrorClass = "unknown"
)

// DispatchOutcome is the result of one send attempt for one token.
type DispatchOutcome struct {
	Token     string
	Delivered bool
	Class     ErrorClass
	// Code is the provider error identifier, kept for logging only.
	Code string
}

// PermanentFailure reports whether the provider has declared the token dead.
func (o DispatchOutcome) PermanentFailure() bool {
	return !o.Delivered && o.Class == ClassPermanent
}

// Gateway is the outbound push provider capability. Send submits one batch
// and returns one outcome per input token, in input order and of equal
// length. A non-nil error means the whole batch call failed (transport or
// auth) and no per-token outcomes are available.
type Gateway interface {
	Send(ctx context.Context, tokens []string, payload notification.Payload) ([]DispatchOutcome, error)
}

// TokenStore is the engine-facing registry abstraction. Every operation is
// scoped to a single user to keep batches bounded and avoid cross-user
// contention. The engine only ever reads and deletes; inserts and LastUsed
// refreshes belong to TokenRegistrar.
type TokenStore interface {
	// ListTokens returns all tokens currently registered for the user.
	ListTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error)

	// DeleteTokens removes the given tokens in one atomic batch and returns
	// the number removed. Tokens already absent are ignored, so redelivered
	// events and overlapping sweeps are safe.
	DeleteTokens(ctx context.Context, userID string, tokens []string) (int, error)

	// QueryStaleTokens returns the user's tokens with LastUsed strictly
	// before the given instant.
	QueryStaleTokens(ctx context.Context, userID string, before time.Time) ([]notification.DeviceToken, error)
}

// UserDirectory enumerates the users the sweeper must visit.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]string, error)
}

// TokenRegistrar is the surface the registration collaborator (the mobile
// app, via the HTTP API) uses. Registering an existing token refreshes its
// LastUsed timestamp.
type TokenRegistrar interface {
	RegisterToken(ctx context.Context, userID string, token string) error
	UnregisterToken(ctx context.Context, userID string, token string) error
}

// Package sweeper implements the periodic token retention sweep: tokens
// whose lastUsed timestamp has fallen outside the retention window are
// removed from the registry, one bounded batch per user.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/devmantra/tasker-push-service/pkg/push"
)

// Report summarises one sweep run.
type Report struct {
	UsersVisited int
	Deleted      int
	// FailedUsers counts users whose query or delete failed. Their tokens
	// are left for the next run.
	FailedUsers int
}

// Sweeper deletes tokens older than the retention window. Runs are
// idempotent and safe to overlap with each other and with dispatcher
// activity: deletions are set-based, so the worst case is a delete of an
// already-absent document.
type Sweeper struct {
	store       push.TokenStore
	users       push.UserDirectory
	retention   time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewSweeper(
	store push.TokenStore,
	users push.UserDirectory,
	retention time.Duration,
	callTimeout time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		store:       store,
		users:       users,
		retention:   retention,
		callTimeout: callTimeout,
		logger:      logger.With("component", "Sweeper"),
		now:         time.Now,
	}
}

// Sweep visits every user and deletes their stale tokens in one batch per
// user. A failure for one user is logged and does not abort the remaining
// users. The returned error is only non-nil when the user listing itself
// failed; per-user failures are reported through the Report.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	cutoff := s.now().Add(-s.retention)

	users, err := s.listUsers(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{UsersVisited: len(users)}
	for _, userID := range users {
		deleted, err := s.sweepUser(ctx, userID, cutoff)
		if err != nil {
			report.FailedUsers++
			s.logger.Error("Sweep failed for user; continuing.", "user_id", userID, "err", err)
			continue
		}
		report.Deleted += deleted
	}

	s.logger.Info("Token sweep complete",
		"cutoff", cutoff,
		"users_visited", report.UsersVisited,
		"deleted", report.Deleted,
		"failed_users", report.FailedUsers,
	)
	return report, nil
}

// sweepUser deletes one user's tokens with lastUsed strictly before the
// cutoff. Users with nothing stale incur no write at all.
func (s *Sweeper) sweepUser(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	stale, err := s.store.QueryStaleTokens(ctx, userID, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tokens := make([]string, len(stale))
	for i, t := range stale {
		tokens[i] = t.Token
	}
	return s.store.DeleteTokens(ctx, userID, tokens)
}

func (s *Sweeper) listUsers(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.users.ListUsers(ctx)
}

// Run executes a sweep on every tick until the context is cancelled. Used
// when no external scheduler is configured.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Periodic sweep runner started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Periodic sweep runner stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("Scheduled sweep failed", "err", err)
			}
		}
	}
}

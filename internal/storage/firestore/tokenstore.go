// Package firestore implements the token registry on Cloud Firestore.
//
// Layout: users/{userID}/fcmTokens/{token}, one document per device token
// with the token value doubling as the document key. The engine reads and
// deletes these documents; the registration API creates them and refreshes
// lastUsed.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/devmantra/tasker-push-service/pkg/notification"
)

const (
	usersCollection  = "users"
	tokensCollection = "fcmTokens"
)

// tokenRecord is the internal DB representation of one device token.
type tokenRecord struct {
	Token    string    `firestore:"token"`
	LastUsed time.Time `firestore:"lastUsed"`
}

// Store implements push.TokenStore, push.UserDirectory and
// push.TokenRegistrar on a Firestore client.
type Store struct {
	client *firestore.Client
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

// --- Engine-facing reads ---

func (s *Store) ListTokens(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	return collect(s.tokensCollection(userID).Documents(ctx))
}

// QueryStaleTokens returns tokens with lastUsed strictly before the cutoff.
// A token exactly at the cutoff is retained.
func (s *Store) QueryStaleTokens(ctx context.Context, userID string, before time.Time) ([]notification.DeviceToken, error) {
	query := s.tokensCollection(userID).Where("lastUsed", "<", before)
	return collect(query.Documents(ctx))
}

// ListUsers enumerates every user document so the sweeper can visit all
// token collections.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore user iteration failed: %w", err)
		}
		users = append(users, doc.Ref.ID)
	}
	return users, nil
}

// --- Engine-facing writes ---

// DeleteTokens removes the given tokens in one atomic write batch scoped to
// the user. Firestore deletes of absent documents succeed, so redelivered
// events and overlapping sweeps cannot fail here.
func (s *Store) DeleteTokens(ctx context.Context, userID string, tokens []string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	batch := s.client.Batch()
	for _, token := range tokens {
		batch.Delete(s.tokenRef(userID, token))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("firestore batch delete failed: %w", err)
	}
	return len(tokens), nil
}

// --- Registration collaborator surface ---

// RegisterToken upserts the token document and refreshes lastUsed.
func (s *Store) RegisterToken(ctx context.Context, userID string, token string) error {
	record := tokenRecord{
		Token:    token,
		LastUsed: time.Now(),
	}
	_, err := s.tokenRef(userID, token).Set(ctx, record)
	return err
}

func (s *Store) UnregisterToken(ctx context.Context, userID string, token string) error {
	_, err := s.tokenRef(userID, token).Delete(ctx)
	return err
}

// --- Helpers ---

func collect(iter *firestore.DocumentIterator) ([]notification.DeviceToken, error) {
	defer iter.Stop()

	tokens := make([]notification.DeviceToken, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record tokenRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped rather than failing the fan-out.
			continue
		}
		if record.Token == "" {
			record.Token = doc.Ref.ID
		}
		tokens = append(tokens, notification.DeviceToken{
			Token:    record.Token,
			LastUsed: record.LastUsed,
		})
	}
	return tokens, nil
}

// tokenRef: users/{userID}/fcmTokens/{token}
func (s *Store) tokenRef(userID, token string) *firestore.DocumentRef {
	return s.tokensCollection(userID).Doc(token)
}

func (s *Store) tokensCollection(userID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(userID).Collection(tokensCollection)
}

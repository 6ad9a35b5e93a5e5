// Package redis persists the reversible PII token mappings. Each masking
// run gets its own hash keyed by collection id, so reversal loads exactly
// one hash and deletion of a candidate's data is a single DEL.
package redis

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hirelens/screener/internal/domain"
)

const keyPrefix = "pii:"

// Store maps collection ids to token->original hashes in Redis.
type Store struct {
	client *goredis.Client
}

// New constructs a Store over the given client.
func New(client *goredis.Client) *Store { return &Store{client: client} }

// NewClient builds a go-redis client from address credentials.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func key(collectionID string) string { return keyPrefix + collectionID }

// Store records one token substitution under the collection's hash.
func (s *Store) Store(ctx domain.Context, collectionID, token, original string) error {
	if err := s.client.HSet(ctx, key(collectionID), token, original).Err(); err != nil {
		return fmt.Errorf("op=piistore.store: %w", err)
	}
	return nil
}

// Exists reports whether any mapping was recorded under the collection id.
func (s *Store) Exists(ctx domain.Context, collectionID string) (bool, error) {
	n, err := s.client.Exists(ctx, key(collectionID)).Result()
	if err != nil {
		return false, fmt.Errorf("op=piistore.exists: %w", err)
	}
	return n > 0, nil
}

// Mappings loads the full token->original mapping for a collection.
// Returns domain.ErrNotFound when the collection id is unknown.
func (s *Store) Mappings(ctx domain.Context, collectionID string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key(collectionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("op=piistore.mappings: %w", err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("op=piistore.mappings: collection=%s: %w", collectionID, domain.ErrNotFound)
	}
	return m, nil
}

// Ping verifies connectivity, used by readiness checks.
func (s *Store) Ping(ctx domain.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("op=piistore.ping: %w", err)
	}
	return nil
}

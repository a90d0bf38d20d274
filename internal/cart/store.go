package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/impexo/storefront/pkg/errors"
)

// Store persists the ledger state. One storefront owns one slot, so the
// implementations key everything under a fixed namespace.
type Store interface {
	// Load retrieves the persisted state. Returns ErrNotFound when the slot
	// is empty.
	Load(ctx context.Context) (*State, error)

	// Save overwrites the persisted state.
	Save(ctx context.Context, state *State) error
}

const ledgerKey = "storefront:ledger"

// RedisStore implements Store on Redis under a fixed key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed ledger store. A zero ttl keeps the
// slot forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// Load retrieves the ledger state from Redis.
func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := s.client.Get(ctx, ledgerKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("ledger", ledgerKey)
		}
		return nil, fmt.Errorf("redis get ledger: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}

	return &state, nil
}

// Save persists the ledger state to Redis with the configured TTL.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := s.client.Set(ctx, ledgerKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set ledger: %w", err)
	}

	return nil
}

// MemoryStore implements Store in process memory. Used in tests and as a
// fallback when Redis is not configured.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored state or ErrNotFound when nothing was saved yet.
func (s *MemoryStore) Load(_ context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, apperrors.NotFound("ledger", ledgerKey)
	}
	cp := *s.state
	cp.Items = append([]LineItem(nil), s.state.Items...)
	return &cp, nil
}

// Save stores a copy of the state.
func (s *MemoryStore) Save(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	cp.Items = append([]LineItem(nil), state.Items...)
	s.state = &cp
	return nil
}

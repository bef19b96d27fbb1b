package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Fixed history keys. Each key holds one JSON array, newest entry first.
const (
	KeyQR        = "docsmith:history:qr"
	KeyShortener = "docsmith:history:shortener"

	maxEntries = 50
)

// Store persists small per-tool histories as JSON arrays under fixed keys.
// Batch state deliberately does NOT go through this store; it stays
// memory-only.
type Store interface {
	Append(ctx context.Context, key string, entry interface{}) error
	List(ctx context.Context, key string) ([]json.RawMessage, error)
	Clear(ctx context.Context, key string) error
}

// RedisStore is the production store. Read-modify-write without locking is
// acceptable here: histories are per-user convenience data, same as the
// browser local storage they mirror.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Append(ctx context.Context, key string, entry interface{}) error {
	entries, err := s.List(ctx, key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	entries = append([]json.RawMessage{raw}, entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, key string) ([]json.RawMessage, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("corrupt history under %s: %w", key, err)
	}
	return entries, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryStore keeps histories in process memory. Used in tests and when
// running without Redis.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]json.RawMessage)}
}

func (s *MemoryStore) Append(ctx context.Context, key string, entry interface{}) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append([]json.RawMessage{raw}, s.data[key]...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	s.data[key] = entries
	return nil
}

func (s *MemoryStore) List(ctx context.Context, key string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]json.RawMessage, len(s.data[key]))
	copy(out, s.data[key])
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

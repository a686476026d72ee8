// Package draft persists in-progress onboarding drafts in Redis.
//
// The store is reload-resilient: a draft written before a process restart is
// returned intact afterwards. Writes are strictly sequential — a write
// flushes to Redis before the next may begin — which is the double-submit
// guard at this layer. Every draft key carries a generation counter that is
// bumped on Clear; in-flight responses captured against an older generation
// must be discarded by the caller.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a Redis-backed draft store. All methods are safe for concurrent
// use; mutating calls are serialized internally.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration

	mu sync.Mutex
}

// NewStore creates a draft [Store]. prefix sets the Redis key namespace and
// ttl bounds how long an abandoned draft survives.
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) draftKey(id string) string {
	return s.prefix + ":d:" + id
}

func (s *Store) genKey(id string) string {
	return s.prefix + ":g:" + id
}

func (s *Store) activeKey() string {
	return s.prefix + ":active"
}

// Save persists the draft and marks it as the active draft for this
// namespace. The write is flushed before Save returns.
func (s *Store) Save(ctx context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.UpdatedAt = time.Now().Unix()
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.draftKey(d.ID), data, s.ttl)
		pipe.Set(ctx, s.activeKey(), d.ID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves a draft by ID. Returns redis.Nil when no draft exists;
// callers that need a well-defined empty draft use [Empty].
func (s *Store) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.redis.Get(ctx, s.draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	d.ID = id
	return &d, nil
}

// ActiveID returns the draft ID most recently saved in this namespace, or
// redis.Nil when none is tracked.
func (s *Store) ActiveID(ctx context.Context) (string, error) {
	id, err := s.redis.Get(ctx, s.activeKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return id, nil
}

// Clear removes all persisted state for the draft and bumps its generation
// counter so late responses against the old draft can be detected. The
// generation key outlives the draft by the store TTL.
func (s *Store) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.draftKey(id))
		pipe.Del(ctx, s.activeKey())
		pipe.Incr(ctx, s.genKey(id))
		pipe.Expire(ctx, s.genKey(id), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Generation returns the current generation counter for a draft ID. A draft
// that has never been cleared reports generation 0.
func (s *Store) Generation(ctx context.Context, id string) (uint64, error) {
	gen, err := s.redis.Get(ctx, s.genKey(id)).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return gen, nil
}

// Ping reports point-in-time Redis availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

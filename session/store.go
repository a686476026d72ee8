// Package session persists the authenticated client session in Redis.
//
// A session is created only after a successful registration or login and
// holds the access token, the user type, and whether the user's financial
// profile is complete. One session exists per key namespace; the onboarding
// core is single-user by design.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Session is the persisted session record.
type Session struct {
	Token           string `json:"token"`
	UserType        string `json:"user_type"`
	ProfileComplete bool   `json:"profile_complete"`
	EstablishedAt   int64  `json:"established_at"`
	ExpiresAt       int64  `json:"expires_at,omitempty"` // unix seconds, 0 when unknown
}

// Store is a Redis-backed session store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a session [Store]. ttl is the fallback lifetime used when
// the session carries no token expiry.
func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key() string {
	return s.prefix + ":current"
}

// Save persists the session. When the session carries a token expiry the
// Redis TTL is capped to it so a stored token never outlives its validity.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess.EstablishedAt == 0 {
		sess.EstablishedAt = time.Now().Unix()
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if sess.ExpiresAt > 0 {
		until := time.Until(time.Unix(sess.ExpiresAt, 0))
		if until <= 0 {
			return errors.New("session token already expired")
		}
		if ttl <= 0 || until < ttl {
			ttl = until
		}
	}

	if err := s.redis.Set(ctx, s.key(), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves the current session. Returns redis.Nil when none exists.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.ExpiresAt > 0 && time.Now().Unix() >= sess.ExpiresAt {
		_ = s.redis.Del(ctx, s.key()).Err()
		return nil, redis.Nil
	}
	return &sess, nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

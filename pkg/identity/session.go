package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/platinummonkey/garage/pkg/auth"
)

const (
	sessionKeyPrefix = "garage:session:"
	roleKeyPrefix    = "garage:session-role:"
)

// Session is a signed-in browser session
type Session struct {
	ID        string        `json:"id"`
	Identity  auth.Identity `json:"identity"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// RedisSessionStore keeps sessions and the per-identity role claim in Redis
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSessionStore creates a session store. Sessions expire after ttl.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now}
}

// CreateSession starts a session for identity
func (s *RedisSessionStore) CreateSession(ctx context.Context, identity *auth.Identity) (*Session, error) {
	now := s.now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		Identity:  *identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return session, nil
}

// GetSession loads a session by id
func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession ends a session. Unknown ids are not an error.
func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// UpdateSessionRole records the role claim for an identity. It outlives
// individual sessions.
func (s *RedisSessionStore) UpdateSessionRole(ctx context.Context, identityID string, role auth.Role) error {
	if !role.Valid() {
		return &auth.InvalidRoleError{Value: string(role)}
	}
	if err := s.client.Set(ctx, roleKeyPrefix+identityID, string(role), 0).Err(); err != nil {
		return fmt.Errorf("failed to update session role: %w", err)
	}
	return nil
}

// SessionRole returns the role claim for an identity, or "" when none is set
func (s *RedisSessionStore) SessionRole(ctx context.Context, identityID string) (auth.Role, error) {
	role, err := s.client.Get(ctx, roleKeyPrefix+identityID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load session role: %w", err)
	}
	return auth.Role(role), nil
}

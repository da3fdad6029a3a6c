package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
	"github.com/akeamc/skool/pkg/crypt"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

// SessionCache holds authenticated upstream sessions in Redis, sealed with
// the same key as credentials at rest. Sessions expire after
// models.SessionTTL; an undecryptable entry counts as a miss.
type SessionCache struct {
	client *redis.Client
	key    []byte
	logger *zap.Logger
}

// NewSessionCache constructs a SessionCache.
func NewSessionCache(client *redis.Client, key []byte, logger *zap.Logger) *SessionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCache{client: client, key: key, logger: logger}
}

func sessionKey(userID uuid.UUID) string {
	return "v1:sessions:" + userID.String()
}

// Get returns the cached session or appErrors.ErrCacheMiss.
func (c *SessionCache) Get(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	raw, err := c.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session models.Session
	if err := crypt.Open(raw, c.key, &session); err != nil {
		c.logger.Warn("discarding undecryptable session", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, appErrors.ErrCacheMiss
	}
	return &session, nil
}

// Set seals and stores a session with the standard TTL.
func (c *SessionCache) Set(ctx context.Context, userID uuid.UUID, session *models.Session) error {
	sealed, err := crypt.Seal(session, c.key)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	key := sessionKey(userID)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, sealed, 0)
	pipe.Expire(ctx, key, models.SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Purge drops the user's cached session. Callers must purge whenever the
// underlying credentials change or disappear.
func (c *SessionCache) Purge(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis purge session: %w", err)
	}
	return nil
}

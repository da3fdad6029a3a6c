package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

type sessionCredentialsReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Credentials, error)
}

type sessionStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	Set(ctx context.Context, userID uuid.UUID, session *models.Session) error
	Purge(ctx context.Context, userID uuid.UUID) error
}

type upstreamAuthenticator interface {
	Login(ctx context.Context, username, password string) (*models.Session, error)
}

// SessionService resolves a user id to an authenticated upstream session,
// logging in on cache misses. Concurrent misses for the same user are
// collapsed into one login; the upstream rate-limits aggressively.
type SessionService struct {
	credentials sessionCredentialsReader
	cache       sessionStore
	auth        upstreamAuthenticator
	metrics     *MetricsService
	group       singleflight.Group
	logger      *zap.Logger
}

// NewSessionService constructs a SessionService. metrics may be nil.
func NewSessionService(credentials sessionCredentialsReader, cache sessionStore, auth upstreamAuthenticator, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		credentials: credentials,
		cache:       cache,
		auth:        auth,
		metrics:     metrics,
		logger:      logger,
	}
}

// Get returns the user's session, from cache when possible. Returns
// MissingCredentials when the user has no stored credentials.
func (s *SessionService) Get(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	session, err := s.cache.Get(ctx, userID)
	if s.metrics != nil {
		s.metrics.ObserveSessionLookup(err == nil)
	}
	if err == nil {
		return session, nil
	}
	if !appErrors.Is(err, appErrors.ErrCacheMiss) {
		// Redis being down should not lock everyone out; fall through to a
		// fresh login.
		s.logger.Warn("session cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	result, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		return s.login(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Session), nil
}

func (s *SessionService) login(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	creds, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, appErrors.ErrMissingCredentials
	}

	start := time.Now()
	session, err := s.auth.Login(ctx, creds.Private.Username, creds.Private.Password)
	if s.metrics != nil {
		s.metrics.ObserveLogin(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, session); err != nil {
		s.logger.Warn("session cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return session, nil
}

// Purge drops the user's cached session.
func (s *SessionService) Purge(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Purge(ctx, userID)
}

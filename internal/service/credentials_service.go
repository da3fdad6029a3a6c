package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

type credentialsWriter interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Credentials, error)
	UpsertTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, creds models.Credentials) error
	Delete(ctx context.Context, userID uuid.UUID) (bool, error)
}

type classWriter interface {
	UpsertTx(ctx context.Context, tx *sqlx.Tx, class models.Class) error
}

type sessionPurger interface {
	Set(ctx context.Context, userID uuid.UUID, session *models.Session) error
	Purge(ctx context.Context, userID uuid.UUID) error
}

// CredentialsService manages stored upstream credentials. Saving verifies
// the credentials with a real login before anything is written.
type CredentialsService struct {
	db          *sqlx.DB
	credentials credentialsWriter
	classes     classWriter
	cache       sessionPurger
	auth        upstreamAuthenticator
	factory     ClientFactory
	logger      *zap.Logger
	now         func() time.Time
}

// NewCredentialsService constructs a CredentialsService.
func NewCredentialsService(db *sqlx.DB, credentials credentialsWriter, classes classWriter, cache sessionPurger, auth upstreamAuthenticator, factory ClientFactory, logger *zap.Logger) *CredentialsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialsService{
		db:          db,
		credentials: credentials,
		classes:     classes,
		cache:       cache,
		auth:        auth,
		factory:     factory,
		logger:      logger,
		now:         time.Now,
	}
}

// Set verifies and stores the user's credentials, returning the public
// projection. A failed upstream login aborts the save; in particular
// BadCredentials surfaces to the caller.
func (s *CredentialsService) Set(ctx context.Context, userID uuid.UUID, private models.Private) (*models.PublicCredentials, error) {
	session, err := s.auth.Login(ctx, private.Username, private.Password)
	if err != nil {
		return nil, err
	}

	creds := models.Credentials{
		UpdatedAt: s.now().UTC(),
		Private:   private,
	}

	// Class resolution is best-effort; a flaky upstream degrades the save to
	// school=null, class=null rather than failing it.
	class, err := s.classFromSession(ctx, session)
	if err != nil {
		s.logger.Warn("class resolution failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if class != nil {
		creds.School = &class.School
		creds.Class = &class.Reference
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin credentials tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.credentials.UpsertTx(ctx, tx, userID, creds); err != nil {
		return nil, err
	}
	if class != nil {
		if err := s.classes.UpsertTx(ctx, tx, *class); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit credentials tx: %w", err)
	}

	// Old sessions belong to the previous credentials; drop them after the
	// commit and seed the cache with the login we just performed. Cache
	// failures are non-fatal, the stale entry expires by TTL.
	if err := s.cache.Purge(ctx, userID); err != nil {
		s.logger.Warn("session purge failed", zap.String("user_id", userID.String()), zap.Error(err))
	} else if err := s.cache.Set(ctx, userID, session); err != nil {
		s.logger.Warn("session cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	public := creds.PublicCredentials()
	return &public, nil
}

// classFromSession works out which school and class the session belongs to.
// Returns nil when the account has no timetable or the unit exposes more
// than one class.
func (s *CredentialsService) classFromSession(ctx context.Context, session *models.Session) (*models.Class, error) {
	client, err := s.factory(session)
	if err != nil {
		return nil, err
	}

	timetables, err := client.ListTimetables(ctx)
	if err != nil {
		return nil, err
	}
	if len(timetables) == 0 {
		return nil, nil
	}
	unitGUID := timetables[0].UnitGUID

	filters, err := client.AvailableFilters(ctx, unitGUID)
	if err != nil {
		return nil, err
	}
	if len(filters.Classes) != 1 {
		return nil, nil
	}

	return &models.Class{
		School:    models.NewSchoolHash(models.SystemSkolplattformen, []byte(unitGUID)),
		Reference: filters.Classes[0].GroupGUID,
		Name:      filters.Classes[0].GroupName,
	}, nil
}

// Get returns the stored credentials' public projection.
func (s *CredentialsService) Get(ctx context.Context, userID uuid.UUID) (*models.PublicCredentials, error) {
	creds, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no credentials set")
	}
	public := creds.PublicCredentials()
	return &public, nil
}

// Delete removes the stored credentials and the cached session.
func (s *CredentialsService) Delete(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.credentials.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "no credentials set")
	}

	if err := s.cache.Purge(ctx, userID); err != nil {
		s.logger.Warn("session purge failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

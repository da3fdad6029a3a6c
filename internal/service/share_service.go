package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

type linkStore interface {
	Insert(ctx context.Context, link models.Link) error
	Get(ctx context.Context, id models.LinkID) (*models.Link, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Link, error)
	Delete(ctx context.Context, owner uuid.UUID, id models.LinkID) error
	TouchLastUsed(ctx context.Context, id models.LinkID, at time.Time) error
}

// ShareService manages share links: unguessable capabilities granting
// read-only access to a slice of the owner's schedule.
type ShareService struct {
	links     linkStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewShareService constructs a ShareService.
func NewShareService(links linkStore, validate *validator.Validate, logger *zap.Logger) *ShareService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ShareService{links: links, validator: validate, logger: logger, now: time.Now}
	svc.validator.RegisterStructValidation(svc.validateOptions, models.Options{})
	return svc
}

func (s *ShareService) validateOptions(sl validator.StructLevel) {
	opts := sl.Current().Interface().(models.Options)
	if opts.ExpiresAt != nil && !opts.ExpiresAt.After(s.now()) {
		sl.ReportError(opts.ExpiresAt, "ExpiresAt", "expires_at", "future", "")
	}
	if opts.Range.Start != nil && opts.Range.End != nil && opts.Range.End.Before(*opts.Range.Start) {
		sl.ReportError(opts.Range.End, "Range", "range", "ordered", "")
	}
}

// Create mints a new link for the owner.
func (s *ShareService) Create(ctx context.Context, owner uuid.UUID, options models.Options) (*models.Link, error) {
	if err := s.validator.Struct(options); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid link options")
	}

	id, err := models.NewLinkID()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	link := models.Link{
		ID:      id,
		Owner:   owner,
		Options: options,
	}
	if err := s.links.Insert(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// List returns the owner's links.
func (s *ShareService) List(ctx context.Context, owner uuid.UUID) ([]models.Link, error) {
	return s.links.ListByOwner(ctx, owner)
}

// Delete revokes a link. Links owned by someone else report not found.
func (s *ShareService) Delete(ctx context.Context, owner uuid.UUID, id models.LinkID) error {
	return s.links.Delete(ctx, owner, id)
}

// Resolve validates a presented link id and stamps its use. Missing and
// expired links are indistinguishable to the caller.
func (s *ShareService) Resolve(ctx context.Context, id models.LinkID) (*models.Link, error) {
	link, err := s.links.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, appErrors.ErrInvalidShareLink
	}
	if link.Options.ExpiresAt != nil && !s.now().Before(*link.Options.ExpiresAt) {
		return nil, appErrors.ErrInvalidShareLink
	}

	if err := s.links.TouchLastUsed(ctx, id, s.now().UTC()); err != nil {
		s.logger.Warn("touching share link failed", zap.String("link_id", id.String()), zap.Error(err))
	}
	return link, nil
}

// PermitsWeek reports whether both endpoints of the ISO week lie within the
// link's date range.
func PermitsWeek(link *models.Link, week models.Week) bool {
	return link.Options.Range.Contains(week.Monday()) && link.Options.Range.Contains(week.Sunday())
}

package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

type classLister interface {
	ListBySchool(ctx context.Context, school models.SchoolHash) ([]models.Class, error)
}

// ClassService lists the classes registered peers belong to.
type ClassService struct {
	credentials sessionCredentialsReader
	classes     classLister
}

// NewClassService constructs a ClassService.
func NewClassService(credentials sessionCredentialsReader, classes classLister) *ClassService {
	return &ClassService{credentials: credentials, classes: classes}
}

// List returns the classes of the caller's school. Users whose school could
// not be resolved at save time see an empty list.
func (s *ClassService) List(ctx context.Context, userID uuid.UUID) ([]models.Class, error) {
	creds, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, appErrors.ErrMissingCredentials
	}
	if creds.School == nil {
		return []models.Class{}, nil
	}
	return s.classes.ListBySchool(ctx, *creds.School)
}

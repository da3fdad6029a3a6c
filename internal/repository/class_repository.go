package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akeamc/skool/internal/models"
)

// ClassRepository persists the classes users have been observed in. Rows are
// written opportunistically whenever credentials are saved, so the listing
// grows as users register.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Upsert records a class, refreshing its display name if it already exists.
func (r *ClassRepository) Upsert(ctx context.Context, class models.Class) error {
	const query = `INSERT INTO classes (school, reference, name)
VALUES ($1, $2, $3)
ON CONFLICT (school, reference)
DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.ExecContext(ctx, query, class.School, class.Reference, class.Name); err != nil {
		return fmt.Errorf("upsert class: %w", err)
	}
	return nil
}

// UpsertTx is Upsert inside an existing transaction.
func (r *ClassRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, class models.Class) error {
	const query = `INSERT INTO classes (school, reference, name)
VALUES ($1, $2, $3)
ON CONFLICT (school, reference)
DO UPDATE SET name = EXCLUDED.name`
	if _, err := tx.ExecContext(ctx, query, class.School, class.Reference, class.Name); err != nil {
		return fmt.Errorf("upsert class: %w", err)
	}
	return nil
}

// ListBySchool returns the known classes of a school ordered by name.
func (r *ClassRepository) ListBySchool(ctx context.Context, school models.SchoolHash) ([]models.Class, error) {
	const query = `SELECT school, reference, name FROM classes WHERE school = $1 ORDER BY name ASC`

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, school); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

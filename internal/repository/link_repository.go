package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

// LinkRepository persists share links.
type LinkRepository struct {
	db *sqlx.DB
}

// NewLinkRepository constructs a LinkRepository.
func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

type linkRow struct {
	ID        models.LinkID    `db:"id"`
	Owner     uuid.UUID        `db:"owner"`
	ExpiresAt *time.Time       `db:"expires_at"`
	Range     models.DateRange `db:"date_range"`
	LastUsed  *time.Time       `db:"last_used"`
}

func (row linkRow) link() models.Link {
	return models.Link{
		ID:    row.ID,
		Owner: row.Owner,
		Options: models.Options{
			ExpiresAt: row.ExpiresAt,
			Range:     row.Range,
		},
		LastUsed: row.LastUsed,
	}
}

// Insert stores a new link.
func (r *LinkRepository) Insert(ctx context.Context, link models.Link) error {
	const query = `INSERT INTO links (id, owner, expires_at, date_range)
VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, link.ID, link.Owner, link.Options.ExpiresAt, link.Options.Range); err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// Get fetches a link by id regardless of owner. Returns nil when absent.
func (r *LinkRepository) Get(ctx context.Context, id models.LinkID) (*models.Link, error) {
	const query = `SELECT id, owner, expires_at, date_range, last_used FROM links WHERE id = $1`

	var row linkRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get link: %w", err)
	}

	link := row.link()
	return &link, nil
}

// ListByOwner returns all links the user has created, newest use first.
func (r *LinkRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Link, error) {
	const query = `SELECT id, owner, expires_at, date_range, last_used FROM links
WHERE owner = $1 ORDER BY last_used DESC NULLS LAST`

	var rows []linkRow
	if err := r.db.SelectContext(ctx, &rows, query, owner); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	links := make([]models.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, row.link())
	}
	return links, nil
}

// Delete removes a link owned by the given user. Deleting someone else's
// link reports not found rather than leaking its existence.
func (r *LinkRepository) Delete(ctx context.Context, owner uuid.UUID, id models.LinkID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// TouchLastUsed stamps the link's last use time.
func (r *LinkRepository) TouchLastUsed(ctx context.Context, id models.LinkID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE links SET last_used = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch link: %w", err)
	}
	return nil
}

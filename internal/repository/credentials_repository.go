package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
	"github.com/akeamc/skool/pkg/crypt"
)

// CredentialsRepository persists sealed login credentials. The password only
// exists in plaintext inside this process; at rest it is an AES-GCM-SIV blob.
type CredentialsRepository struct {
	db     *sqlx.DB
	key    []byte
	logger *zap.Logger
}

// NewCredentialsRepository constructs a CredentialsRepository sealing with
// the given 32-byte key.
func NewCredentialsRepository(db *sqlx.DB, key []byte, logger *zap.Logger) *CredentialsRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialsRepository{db: db, key: key, logger: logger}
}

type credentialsRow struct {
	UserID    uuid.UUID          `db:"user_id"`
	UpdatedAt time.Time          `db:"updated_at"`
	School    *models.SchoolHash `db:"school"`
	Class     *string            `db:"class"`
	Data      []byte             `db:"data"`
}

func (r *CredentialsRepository) decode(row credentialsRow) *models.Credentials {
	var private models.Private
	if err := crypt.Open(row.Data, r.key, &private); err != nil {
		// An undecryptable row is unusable; treat it like an absent one so
		// the user can set fresh credentials.
		r.logger.Warn("discarding undecryptable credentials", zap.String("user_id", row.UserID.String()), zap.Error(err))
		return nil
	}

	return &models.Credentials{
		UpdatedAt: row.UpdatedAt,
		School:    row.School,
		Class:     row.Class,
		Private:   private,
	}
}

// Get returns the user's credentials, or nil when none are stored or the
// stored blob no longer decrypts.
func (r *CredentialsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Credentials, error) {
	const query = `SELECT user_id, updated_at, school, class, data FROM credentials WHERE user_id = $1`

	var row credentialsRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	return r.decode(row), nil
}

// UpsertTx seals and writes the user's credentials inside the given
// transaction.
func (r *CredentialsRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, creds models.Credentials) error {
	sealed, err := crypt.Seal(creds.Private, r.key)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	const query = `INSERT INTO credentials (user_id, updated_at, school, class, data)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id)
DO UPDATE SET updated_at = EXCLUDED.updated_at, school = EXCLUDED.school,
              class = EXCLUDED.class, data = EXCLUDED.data`
	if _, err := tx.ExecContext(ctx, query, userID, creds.UpdatedAt, creds.School, creds.Class, sealed); err != nil {
		return fmt.Errorf("upsert credentials: %w", err)
	}
	return nil
}

// Delete removes the user's credentials. Returns false when none existed.
func (r *CredentialsRepository) Delete(ctx context.Context, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("delete credentials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete credentials: %w", err)
	}
	return affected > 0, nil
}

// FindPeer returns some other user registered in the same school and class,
// with decrypted credentials. Returns zero values when no usable peer exists.
func (r *CredentialsRepository) FindPeer(ctx context.Context, school models.SchoolHash, class string, exclude uuid.UUID) (uuid.UUID, *models.Credentials, error) {
	const query = `SELECT user_id, updated_at, school, class, data FROM credentials
WHERE school = $1 AND class = $2 AND user_id <> $3
ORDER BY updated_at DESC`

	var rows []credentialsRow
	if err := r.db.SelectContext(ctx, &rows, query, school, class, exclude); err != nil {
		return uuid.Nil, nil, fmt.Errorf("find peer credentials: %w", err)
	}

	for _, row := range rows {
		if creds := r.decode(row); creds != nil {
			return row.UserID, creds, nil
		}
	}
	return uuid.Nil, nil, nil
}

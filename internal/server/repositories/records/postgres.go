package records

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/dbx"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `user_id, ciphertext, salt, kdf, data_version, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.Record, error) {
	rec := &models.Record{}
	err := row.Scan(&rec.UserID, &rec.Ciphertext, &rec.Salt, &rec.KDF,
		&rec.DataVersion, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return rec, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM encrypted_records WHERE user_id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID string) (*models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM encrypted_records WHERE user_id = $1 FOR UPDATE`
	return scanRecord(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query :=
		`INSERT INTO encrypted_records (user_id, ciphertext, salt, kdf, data_version, version)
		 VALUES ($1, $2, $3, $4, $5, 1)
		 RETURNING ` + selectColumns

	return scanRecord(r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Ciphertext, rec.Salt, rec.KDF, rec.DataVersion))
}

func (r *PostgresRepository) Update(ctx context.Context, userID string, u models.RecordUpdate) (*models.Record, error) {
	query :=
		`UPDATE encrypted_records
		 SET ciphertext = $2,
		     salt = COALESCE(NULLIF($3, ''), salt),
		     kdf = COALESCE(NULLIF($4, ''), kdf),
		     data_version = $5,
		     version = version + 1,
		     updated_at = now()
		 WHERE user_id = $1 AND version = $6
		 RETURNING ` + selectColumns

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query,
		userID, u.Ciphertext, u.Salt, u.KDF, u.DataVersion, u.ExpectedVersion))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	// No row matched: either the record is gone or the version moved on.
	if _, gerr := r.Get(ctx, userID); gerr != nil {
		return nil, gerr
	}
	return nil, common.ErrVersionConflict
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM encrypted_records WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.MapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

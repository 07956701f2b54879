// Package records stores the per-user encrypted records.
package records

import (
	"context"

	"github.com/dmitrijs2005/maunavault/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the user has no record.
	Get(ctx context.Context, userID string) (*models.Record, error)
	// GetForUpdate is Get that also locks the row until the transaction ends.
	GetForUpdate(ctx context.Context, userID string) (*models.Record, error)
	// Insert creates the record at version 1. It returns
	// common.ErrorAlreadyExists when the user already has one.
	Insert(ctx context.Context, rec *models.Record) (*models.Record, error)
	// Update applies u only if the stored version equals u.ExpectedVersion,
	// bumping the version. It returns common.ErrVersionConflict on a stale
	// version and common.ErrorNotFound when there is no record.
	Update(ctx context.Context, userID string, u models.RecordUpdate) (*models.Record, error)
	Delete(ctx context.Context, userID string) error
}

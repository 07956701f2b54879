package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/cryptox"
	"github.com/dmitrijs2005/maunavault/internal/dbx"
	"github.com/dmitrijs2005/maunavault/internal/logging"
	"github.com/dmitrijs2005/maunavault/internal/server/archive"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
	"github.com/dmitrijs2005/maunavault/internal/server/repositories/repomanager"
)

// RecordService stores one opaque encrypted record per user. It never
// decrypts anything; it only checks the envelope shape and enforces
// compare-and-swap versioning. Replaced and deleted versions are handed to
// the archiver.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	archiver    archive.Archiver
	logger      logging.Logger
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, a archive.Archiver, l logging.Logger) *RecordService {
	if a == nil {
		a = archive.Nop{}
	}
	return &RecordService{db: db, repomanager: m, archiver: a, logger: l.With("module", "record_service")}
}

func validateEnvelope(ciphertext string) error {
	if !cryptox.IsEnvelope(ciphertext) {
		return fmt.Errorf("%w: ciphertext is not an envelope", common.ErrorValidation)
	}
	return nil
}

func (s *RecordService) Get(ctx context.Context, userID string) (*models.Record, error) {
	return s.repomanager.Records(s.db).Get(ctx, userID)
}

// Insert creates the user's record at version 1.
func (s *RecordService) Insert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	if err := validateEnvelope(rec.Ciphertext); err != nil {
		return nil, err
	}
	if rec.Salt == "" || rec.KDF == "" {
		return nil, fmt.Errorf("%w: salt and kdf are required", common.ErrorValidation)
	}
	if _, err := cryptox.ParseKDFParams(rec.KDF); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if rec.DataVersion <= 0 {
		rec.DataVersion = common.DataVersionInitial
	}

	out, err := s.repomanager.Records(s.db).Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "record created", "user_id", rec.UserID)
	return out, nil
}

// Update replaces the record if its version still equals u.ExpectedVersion
// and returns common.ErrVersionConflict otherwise.
func (s *RecordService) Update(ctx context.Context, userID string, u models.RecordUpdate) (*models.Record, error) {
	if err := validateEnvelope(u.Ciphertext); err != nil {
		return nil, err
	}
	if u.KDF != "" {
		if _, err := cryptox.ParseKDFParams(u.KDF); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}
	if u.DataVersion <= 0 {
		u.DataVersion = common.DataVersionInitial
	}

	var prev, out *models.Record
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		cur, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if cur.Version != u.ExpectedVersion {
			return common.ErrVersionConflict
		}
		out, err = repo.Update(ctx, userID, u)
		if err != nil {
			return err
		}
		prev = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.archive(ctx, prev, archive.ReasonOverwrite)
	s.logger.Info(ctx, "record updated", "user_id", userID, "version", out.Version)
	return out, nil
}

// Delete removes the user's record.
func (s *RecordService) Delete(ctx context.Context, userID string) error {
	var prev *models.Record
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		cur, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, userID); err != nil {
			return err
		}
		prev = cur
		return nil
	})
	if err != nil {
		return err
	}

	s.archive(ctx, prev, archive.ReasonDelete)
	s.logger.Info(ctx, "record deleted", "user_id", userID)
	return nil
}

// archive is best effort: the write already committed.
func (s *RecordService) archive(ctx context.Context, rec *models.Record, reason string) {
	if err := s.archiver.Archive(ctx, rec, reason); err != nil {
		s.logger.Warn(ctx, "archive record", "user_id", rec.UserID, "version", rec.Version, "error", err)
	}
}

package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/maunavault/internal/client/client"
	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/cryptox"
)

// unlocked returns the user and a copy of the key, or ErrNoActiveSession.
// The caller wipes the key.
func (v *Vault) unlocked() (string, []byte, error) {
	key := v.state.Key()
	if key == nil {
		return "", nil, ErrNoActiveSession
	}
	return v.state.UserID(), key, nil
}

func (v *Vault) fetch(ctx context.Context, userID string, key []byte) (*models.EncryptedRecord, models.UserData, error) {
	rec, err := v.store.GetRecord(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch record: %w", err)
	}
	var data models.UserData
	if err := cryptox.Decrypt(rec.Ciphertext, key, &data); err != nil {
		return nil, nil, fmt.Errorf("decrypt record: %w", err)
	}
	if data == nil {
		data = models.UserData{}
	}
	return rec, data, nil
}

// Merge applies partial over the stored data and writes the result back,
// guarded by the version it read. Nothing is written if any step fails; a
// concurrent writer makes it fail with common.ErrVersionConflict.
func (v *Vault) Merge(ctx context.Context, partial models.UserData) (models.UserData, error) {
	userID, key, err := v.unlocked()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	rec, current, err := v.fetch(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	merged, err := models.Merge(current, partial, v.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	updated, err := v.write(ctx, userID, key, merged, rec.DataVersion, rec.Version)
	if err != nil {
		return nil, err
	}

	v.state.SetData(merged)
	v.setVersion(updated.Version)
	v.log.Info(ctx, "data merged", "user_id", userID, "version", updated.Version)
	return merged, nil
}

// Save replaces the stored data with data. It fails with
// common.ErrVersionConflict if the record changed since it was last read.
func (v *Vault) Save(ctx context.Context, data models.UserData) error {
	userID, key, err := v.unlocked()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	updated, err := v.write(ctx, userID, key, data, common.DataVersionInitial, v.lastVersion())
	if err != nil {
		return err
	}

	v.state.SetData(data)
	v.setVersion(updated.Version)
	v.log.Info(ctx, "data saved", "user_id", userID, "version", updated.Version)
	return nil
}

func (v *Vault) write(ctx context.Context, userID string, key []byte, data models.UserData, dataVersion int, expected int64) (*models.EncryptedRecord, error) {
	ciphertext, err := cryptox.Encrypt(data, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	updated, err := v.store.UpdateRecord(ctx, userID, client.RecordUpdate{
		Ciphertext:      ciphertext,
		DataVersion:     dataVersion,
		ExpectedVersion: expected,
	})
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return updated, nil
}

// Export returns a decrypted copy of the stored data.
func (v *Vault) Export(ctx context.Context) (*models.Export, error) {
	userID, key, err := v.unlocked()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	_, data, err := v.fetch(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	return &models.Export{ExportedAt: v.opts.Now().UTC(), UserID: userID, Data: data}, nil
}

// DeleteAll removes the user's record and locks the session. The next
// unlock starts from an empty record.
func (v *Vault) DeleteAll(ctx context.Context) error {
	userID := v.state.UserID()
	if userID == "" {
		return ErrNoActiveSession
	}
	if err := v.store.DeleteRecord(ctx, userID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	v.state.Lock()
	v.setVersion(0)
	v.log.Info(ctx, "record deleted", "user_id", userID)
	return nil
}

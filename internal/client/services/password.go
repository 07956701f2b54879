package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/maunavault/internal/client/client"
	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/client/session"
	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/cryptox"
	"github.com/sethvargo/go-retry"
)

// ChangePassword re-encrypts the record under newPassword and then moves the
// auth credential.
//
// The record is written first, with a fresh salt, guarded by its version.
// The previous ciphertext and salt are written back (retried with backoff)
// only when the credential is known to be unchanged: either the provider
// rejected the update, or a sign-in with the new credential is refused.
// When the update may have been applied but that cannot be confirmed, the
// new record is kept and ErrPasswordChangeIncomplete is returned together
// with ErrCredentialUnconfirmed. If the write-back fails,
// ErrPasswordChangeIncomplete is returned alone: the data then opens with
// the new password while the account still signs in with the old one.
func (v *Vault) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	if v.state.Status() != session.Unlocked {
		return ErrNoActiveSession
	}
	if len(newPassword) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	userID, email, data := v.state.UserID(), v.state.Email(), v.state.Data()

	rec, err := v.store.GetRecord(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}

	oldKey, err := deriveFor(rec, oldPassword)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldKey)

	newSalt, err := cryptox.GenerateSalt()
	if err != nil {
		return err
	}
	newKey, err := cryptox.DeriveKey(newPassword, newSalt, v.opts.KDF)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer common.WipeByteArray(newKey)

	ciphertext, err := cryptox.ReEncrypt(rec.Ciphertext, oldKey, newKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncorrectPassword, err)
	}

	updated, err := v.store.UpdateRecord(ctx, userID, client.RecordUpdate{
		Ciphertext:      ciphertext,
		Salt:            newSalt,
		KDF:             v.opts.KDF.String(),
		DataVersion:     rec.DataVersion,
		ExpectedVersion: rec.Version,
	})
	if err != nil {
		return fmt.Errorf("store re-encrypted record: %w", err)
	}

	newCredential := cryptox.AuthCredential(newPassword, email)
	credErr := v.auth.UpdateCredential(ctx, client.CredentialUpdate{
		CurrentCredential: cryptox.AuthCredential(oldPassword, email),
		NewCredential:     newCredential,
	})

	// The outcome must be settled even if the caller gave up waiting.
	ctx = context.WithoutCancel(ctx)

	changed := credErr == nil
	var checkErr error
	if credErr != nil && !credentialRejected(credErr) {
		v.log.Warn(ctx, "credential update outcome unknown", "user_id", userID, "error", credErr)
		changed, checkErr = v.credentialChanged(ctx, userID, email, newCredential)
	}

	switch {
	case changed:
		v.adoptKey(ctx, userID, newKey, data, updated.Version)
		v.log.Info(ctx, "password changed", "user_id", userID, "version", updated.Version)
		return nil
	case checkErr != nil:
		v.adoptKey(ctx, userID, newKey, data, updated.Version)
		v.log.Error(ctx, "password change not confirmed", "user_id", userID, "error", checkErr)
		return errors.Join(ErrPasswordChangeIncomplete, ErrCredentialUnconfirmed, credErr, checkErr)
	}

	v.log.Warn(ctx, "credential unchanged, restoring record", "user_id", userID, "error", credErr)
	restored, rbErr := v.restore(ctx, userID, rec, updated.Version)
	if rbErr != nil {
		// The record only opens with the new password now.
		v.adoptKey(ctx, userID, newKey, data, updated.Version)
		v.log.Error(ctx, "password change left incomplete", "user_id", userID, "error", rbErr)
		return errors.Join(ErrPasswordChangeIncomplete, credErr, rbErr)
	}

	v.setVersion(restored.Version)
	return fmt.Errorf("update credential: %w", credErr)
}

// credentialRejected reports whether err means the provider refused the
// credential update, so the stored credential is still the old one.
func credentialRejected(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) ||
		errors.Is(err, client.ErrNotSignedIn) ||
		errors.Is(err, common.ErrorValidation)
}

// credentialChanged signs in with the new credential to learn whether an
// update that returned no answer was applied. A refused sign-in means it
// was not. A session that ended in the meantime cannot be checked.
func (v *Vault) credentialChanged(ctx context.Context, userID, email, credential string) (bool, error) {
	if v.state.UserID() != userID {
		return false, ErrNoActiveSession
	}

	var changed bool
	err := retry.Do(ctx, v.backoff(), func(ctx context.Context) error {
		sess, err := v.auth.SignIn(ctx, email, credential)
		switch {
		case err == nil:
			changed = true
			if err := v.adopt(ctx, sess); err != nil {
				v.log.Warn(ctx, "persist session", "error", err)
			}
			return nil
		case errors.Is(err, client.ErrUnauthorized):
			return nil
		default:
			return retry.RetryableError(err)
		}
	})
	return changed, err
}

// adoptKey makes key the session key if userID is still signed in.
func (v *Vault) adoptKey(ctx context.Context, userID string, key []byte, data models.UserData, version int64) {
	if !v.state.Unlock(userID, key, data) {
		v.log.Warn(ctx, "session ended during password change", "user_id", userID)
		return
	}
	v.setVersion(version)
}

func (v *Vault) backoff() retry.Backoff {
	return retry.WithMaxRetries(uint64(v.opts.RetryAttempts-1), retry.NewExponential(v.opts.RetryBackoff))
}

// restore writes prev's ciphertext, salt and KDF back over the version
// written by the failed password change.
func (v *Vault) restore(ctx context.Context, userID string, prev *models.EncryptedRecord, version int64) (*models.EncryptedRecord, error) {
	var restored *models.EncryptedRecord
	err := retry.Do(ctx, v.backoff(), func(ctx context.Context) error {
		rec, err := v.store.UpdateRecord(ctx, userID, client.RecordUpdate{
			Ciphertext:      prev.Ciphertext,
			Salt:            prev.Salt,
			KDF:             prev.KDF,
			DataVersion:     prev.DataVersion,
			ExpectedVersion: version,
		})
		switch {
		case err == nil:
			restored = rec
			return nil
		case errors.Is(err, common.ErrVersionConflict):
			// Someone else wrote in between; overwriting would lose it.
			return err
		case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrNotSignedIn):
			return err
		default:
			return retry.RetryableError(err)
		}
	})
	return restored, err
}

// ValidatePassword reports whether password opens the stored record.
func (v *Vault) ValidatePassword(ctx context.Context, password []byte) (bool, error) {
	userID := v.state.UserID()
	if userID == "" {
		return false, ErrNoActiveSession
	}

	rec, err := v.store.GetRecord(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("fetch record: %w", err)
	}
	key, err := deriveFor(rec, password)
	if err != nil {
		return false, err
	}
	defer common.WipeByteArray(key)

	return cryptox.ValidateKey(rec.Ciphertext, key), nil
}

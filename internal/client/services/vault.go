// Package services contains the application services of the MaunaVault
// client. VaultService owns the encryption pipeline: it authenticates,
// derives the data key, keeps it in the session state while unlocked, and
// reads and writes the user's encrypted record.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/client"
	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/maunavault/internal/client/session"
	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/cryptox"
	"github.com/dmitrijs2005/maunavault/internal/logging"
)

var (
	// ErrNoActiveSession is returned when an operation needs a signed-in
	// (or unlocked) session and there is none.
	ErrNoActiveSession = errors.New("no active session")
	// ErrIncorrectPassword is returned when the record cannot be decrypted
	// with a key derived from the given password. It also matches
	// cryptox.ErrDecryptionFailed.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrPasswordChangeIncomplete means the record was re-encrypted under
	// the new password but the credential is not known to match it and the
	// record was not rolled back.
	ErrPasswordChangeIncomplete = errors.New("password change incomplete")
	// ErrCredentialUnconfirmed accompanies ErrPasswordChangeIncomplete when
	// the credential update may or may not have been applied.
	ErrCredentialUnconfirmed = errors.New("credential change not confirmed")
)

// sessionKey is the metadata key of the persisted auth session.
const sessionKey = "auth_session"

// VaultService is the client's entry point to the encrypted user data.
// All methods honor ctx and are safe for concurrent use.
type VaultService interface {
	Register(ctx context.Context, email string, password []byte, initial models.UserData) error
	Login(ctx context.Context, email string, password []byte) error
	Resume(ctx context.Context) (session.Status, error)
	Unlock(ctx context.Context, password []byte) error
	Lock()
	Logout(ctx context.Context) error

	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
	ValidatePassword(ctx context.Context, password []byte) (bool, error)

	Merge(ctx context.Context, partial models.UserData) (models.UserData, error)
	Save(ctx context.Context, data models.UserData) error
	Export(ctx context.Context) (*models.Export, error)
	DeleteAll(ctx context.Context) error

	Status() session.Status
	Email() string
	Data() models.UserData
	Close()
}

// Options tune a Vault. Zero values fall back to defaults.
type Options struct {
	// KDF is used for new salts: on first write and on password change.
	KDF           cryptox.KDFParams
	RetryAttempts int
	RetryBackoff  time.Duration
	Now           func() time.Time
}

func (o *Options) setDefaults() {
	if o.KDF.Algorithm == "" {
		o.KDF = cryptox.DefaultKDFParams()
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Vault implements VaultService over an AuthProvider and an ObjectStore.
// The key and decrypted data are held in a session.State and never leave
// the process.
type Vault struct {
	auth  client.AuthProvider
	store client.ObjectStore
	meta  metadata.Repository
	state *session.State
	log   logging.Logger
	opts  Options

	unsubscribe func()

	mu sync.Mutex
	// version is the record version the cached data was read at.
	version int64
}

// NewVault wires a Vault and subscribes it to session events of auth: a
// refreshed token is persisted, a server-side sign-out clears the state.
func NewVault(auth client.AuthProvider, store client.ObjectStore, meta metadata.Repository,
	state *session.State, log logging.Logger, opts Options) *Vault {
	opts.setDefaults()
	v := &Vault{
		auth:  auth,
		store: store,
		meta:  meta,
		state: state,
		log:   log.With("component", "vault"),
		opts:  opts,
	}
	v.unsubscribe = auth.OnSessionChange(v.onSessionChange)
	return v
}

// Close detaches the vault from session events and drops the key.
func (v *Vault) Close() {
	v.unsubscribe()
	v.state.Lock()
}

func (v *Vault) onSessionChange(ev client.SessionEvent) {
	ctx := context.Background()
	switch ev.Type {
	case client.TokenRefreshed:
		if err := v.persistSession(ctx, ev.Session); err != nil {
			v.log.Warn(ctx, "persist refreshed session", "error", err)
		}
	case client.SignedOut:
		v.state.Clear()
		if err := v.meta.Delete(ctx, sessionKey); err != nil {
			v.log.Warn(ctx, "drop persisted session", "error", err)
		}
		v.log.Info(ctx, "signed out by provider")
	}
}

func (v *Vault) persistSession(ctx context.Context, s *client.Session) error {
	if s == nil {
		return nil
	}
	return metadata.SetJSON(ctx, v.meta, sessionKey, s)
}

// Status reports the session lifecycle state.
func (v *Vault) Status() session.Status { return v.state.Status() }

// Email returns the signed-in email, or "".
func (v *Vault) Email() string { return v.state.Email() }

// Data returns a copy of the decrypted data, or nil unless unlocked.
func (v *Vault) Data() models.UserData { return v.state.Data() }

func (v *Vault) setVersion(n int64) {
	v.mu.Lock()
	v.version = n
	v.mu.Unlock()
}

func (v *Vault) lastVersion() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Register creates the account and its first record, encrypted with a key
// derived from password, and leaves the session unlocked.
func (v *Vault) Register(ctx context.Context, email string, password []byte, initial models.UserData) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: empty password", common.ErrorValidation)
	}

	sess, err := v.auth.SignUp(ctx, email, cryptox.AuthCredential(password, email))
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	if err := v.adopt(ctx, sess); err != nil {
		return err
	}

	if initial == nil {
		initial = models.UserData{}
	}
	rec, key, err := v.createRecord(ctx, sess.UserID, password, initial)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	if !v.state.Unlock(sess.UserID, key, initial) {
		return ErrNoActiveSession
	}
	v.setVersion(rec.Version)
	v.log.Info(ctx, "registered", "user_id", sess.UserID)
	return nil
}

// Login authenticates and then unlocks with the same password.
func (v *Vault) Login(ctx context.Context, email string, password []byte) error {
	sess, err := v.auth.SignIn(ctx, email, cryptox.AuthCredential(password, email))
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if err := v.adopt(ctx, sess); err != nil {
		return err
	}
	return v.Unlock(ctx, password)
}

func (v *Vault) adopt(ctx context.Context, sess *client.Session) error {
	v.state.SignIn(sess.UserID, sess.Email)
	if err := v.persistSession(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Resume restores a persisted auth session after a restart. The key is
// never persisted, so a resumed session is at most Locked.
func (v *Vault) Resume(ctx context.Context) (session.Status, error) {
	var saved client.Session
	err := metadata.GetJSON(ctx, v.meta, sessionKey, &saved)
	if errors.Is(err, common.ErrorNotFound) {
		return session.LoggedOut, nil
	}
	if err != nil {
		return session.LoggedOut, fmt.Errorf("load session: %w", err)
	}

	sess, err := v.auth.Resume(ctx, &saved)
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotSignedIn) {
		_ = v.meta.Delete(ctx, sessionKey)
		return session.LoggedOut, nil
	}
	if err != nil {
		return session.LoggedOut, fmt.Errorf("resume session: %w", err)
	}

	if err := v.adopt(ctx, sess); err != nil {
		return session.LoggedOut, err
	}
	return v.state.Status(), nil
}

// Unlock fetches the record, derives the key from password and decrypts.
// A user without a record gets an empty one. A wrong password leaves the
// session locked and returns ErrIncorrectPassword.
func (v *Vault) Unlock(ctx context.Context, password []byte) error {
	userID := v.state.UserID()
	if userID == "" {
		return ErrNoActiveSession
	}

	rec, err := v.store.GetRecord(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return v.bootstrap(ctx, userID, password)
	}
	if err != nil {
		return fmt.Errorf("fetch record: %w", err)
	}
	return v.unlockWith(ctx, userID, rec, password)
}

func (v *Vault) unlockWith(ctx context.Context, userID string, rec *models.EncryptedRecord, password []byte) error {
	key, data, err := v.open(rec, password)
	if err != nil {
		v.log.Info(ctx, "unlock rejected", "user_id", userID)
		return err
	}
	defer common.WipeByteArray(key)

	if !v.state.Unlock(userID, key, data) {
		return ErrNoActiveSession
	}
	v.setVersion(rec.Version)
	v.log.Info(ctx, "unlocked", "user_id", userID, "version", rec.Version)
	return nil
}

func (v *Vault) bootstrap(ctx context.Context, userID string, password []byte) error {
	rec, key, err := v.createRecord(ctx, userID, password, models.UserData{})
	if errors.Is(err, common.ErrorAlreadyExists) {
		// Created concurrently by another client.
		existing, ferr := v.store.GetRecord(ctx, userID)
		if ferr != nil {
			return fmt.Errorf("fetch record: %w", ferr)
		}
		return v.unlockWith(ctx, userID, existing, password)
	}
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	if !v.state.Unlock(userID, key, models.UserData{}) {
		return ErrNoActiveSession
	}
	v.setVersion(rec.Version)
	v.log.Info(ctx, "record bootstrapped", "user_id", userID)
	return nil
}

// createRecord derives a key with a fresh salt and inserts data encrypted
// under it. The caller owns the returned key.
func (v *Vault) createRecord(ctx context.Context, userID string, password []byte, data models.UserData) (*models.EncryptedRecord, []byte, error) {
	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return nil, nil, err
	}
	key, err := cryptox.DeriveKey(password, salt, v.opts.KDF)
	if err != nil {
		return nil, nil, fmt.Errorf("derive key: %w", err)
	}
	ciphertext, err := cryptox.Encrypt(data, key)
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, fmt.Errorf("encrypt: %w", err)
	}

	rec, err := v.store.InsertRecord(ctx, &models.EncryptedRecord{
		UserID:      userID,
		Ciphertext:  ciphertext,
		Salt:        salt,
		KDF:         v.opts.KDF.String(),
		DataVersion: common.DataVersionInitial,
	})
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, fmt.Errorf("insert record: %w", err)
	}
	return rec, key, nil
}

// deriveFor derives the key of rec from password.
func deriveFor(rec *models.EncryptedRecord, password []byte) ([]byte, error) {
	params, err := cryptox.ParseKDFParams(rec.KDF)
	if err != nil {
		return nil, fmt.Errorf("record kdf: %w", err)
	}
	return cryptox.DeriveKey(password, rec.Salt, params)
}

// open derives the key of rec from password and decrypts it.
func (v *Vault) open(rec *models.EncryptedRecord, password []byte) ([]byte, models.UserData, error) {
	key, err := deriveFor(rec, password)
	if err != nil {
		return nil, nil, err
	}

	var data models.UserData
	if err := cryptox.Decrypt(rec.Ciphertext, key, &data); err != nil {
		common.WipeByteArray(key)
		return nil, nil, fmt.Errorf("%w: %w", ErrIncorrectPassword, err)
	}
	if data == nil {
		data = models.UserData{}
	}
	return key, data, nil
}

// Lock drops the key and data but keeps the auth session.
func (v *Vault) Lock() {
	v.state.Lock()
}

// Logout signs out at the provider and forgets the persisted session. The
// local state is cleared even when the provider call fails.
func (v *Vault) Logout(ctx context.Context) error {
	err := v.auth.SignOut(ctx)
	v.state.Clear()
	if derr := v.meta.Delete(ctx, sessionKey); derr != nil && err == nil {
		err = derr
	}
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

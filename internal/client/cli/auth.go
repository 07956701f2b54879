package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/dmitrijs2005/maunavault/internal/common"
)

// getSimpleText and getPassword point to the interactive input helpers and
// can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

// newPassword asks for a password twice.
func (a *App) newPassword(prompt string) ([]byte, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(a.out, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)
	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// Register creates an account and an empty vault and leaves it unlocked.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := a.newPassword("Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.vault.Register(ctx, email, password, nil); err != nil {
		return err
	}

	success(a.out, "Registered and unlocked")
	return nil
}

// Login signs in and unlocks with the same password.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.vault.Login(ctx, email, password); err != nil {
		return err
	}

	success(a.out, "Unlocked")
	return nil
}

func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.vault.Unlock(ctx, password); err != nil {
		return err
	}

	success(a.out, "Unlocked")
	return nil
}

func (a *App) Lock(ctx context.Context) error {
	a.vault.Lock()
	success(a.out, "Locked")
	return nil
}

// Logout signs out and forgets the saved session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.vault.Logout(ctx); err != nil {
		return err
	}
	success(a.out, "Signed out")
	return nil
}

// ChangePassword re-encrypts the vault under a new password and updates
// the account credential.
func (a *App) ChangePassword(ctx context.Context) error {
	old, err := getPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(old)

	ok, err := a.vault.ValidatePassword(ctx, old)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("incorrect password")
	}

	next, err := a.newPassword("New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.vault.ChangePassword(ctx, old, next); err != nil {
		return err
	}

	success(a.out, "Password changed")
	return nil
}

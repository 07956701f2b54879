package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/client/session"
)

// fakeVault records calls and keeps the data in memory.
type fakeVault struct {
	st    session.Status
	email string
	data  models.UserData

	err      error
	validOK  bool
	resumeSt session.Status

	calls     []string
	passwords []string
	merged    []models.UserData
}

func (f *fakeVault) call(name string, pw ...[]byte) {
	f.calls = append(f.calls, name)
	for _, p := range pw {
		f.passwords = append(f.passwords, string(p))
	}
}

func (f *fakeVault) Register(ctx context.Context, email string, password []byte, initial models.UserData) error {
	f.call("register", password)
	if f.err != nil {
		return f.err
	}
	f.email, f.st, f.data = email, session.Unlocked, models.UserData{}
	return nil
}

func (f *fakeVault) Login(ctx context.Context, email string, password []byte) error {
	f.call("login", password)
	if f.err != nil {
		return f.err
	}
	f.email, f.st = email, session.Unlocked
	return nil
}

func (f *fakeVault) Resume(ctx context.Context) (session.Status, error) {
	f.call("resume")
	f.st = f.resumeSt
	return f.resumeSt, f.err
}

func (f *fakeVault) Unlock(ctx context.Context, password []byte) error {
	f.call("unlock", password)
	if f.err != nil {
		return f.err
	}
	f.st = session.Unlocked
	return nil
}

func (f *fakeVault) Lock() {
	f.call("lock")
	if f.st == session.Unlocked {
		f.st = session.Locked
	}
}

func (f *fakeVault) Logout(ctx context.Context) error {
	f.call("logout")
	f.st = session.LoggedOut
	return f.err
}

func (f *fakeVault) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	f.call("passwd", oldPassword, newPassword)
	return f.err
}

func (f *fakeVault) ValidatePassword(ctx context.Context, password []byte) (bool, error) {
	f.call("validate", password)
	return f.validOK, nil
}

func (f *fakeVault) Merge(ctx context.Context, partial models.UserData) (models.UserData, error) {
	f.call("merge")
	if f.err != nil {
		return nil, f.err
	}
	f.merged = append(f.merged, partial)
	merged, err := models.Merge(f.data, partial, time.Unix(0, 0))
	if err != nil {
		return nil, err
	}
	f.data = merged
	return merged.Clone(), nil
}

func (f *fakeVault) Save(ctx context.Context, data models.UserData) error {
	f.call("save")
	return f.err
}

func (f *fakeVault) Export(ctx context.Context) (*models.Export, error) {
	f.call("export")
	if f.err != nil {
		return nil, f.err
	}
	return &models.Export{ExportedAt: time.Unix(0, 0).UTC(), UserID: "u1", Data: f.data}, nil
}

func (f *fakeVault) DeleteAll(ctx context.Context) error {
	f.call("wipe")
	if f.err != nil {
		return f.err
	}
	f.st, f.data = session.Locked, nil
	return nil
}

func (f *fakeVault) Status() session.Status { return f.st }
func (f *fakeVault) Email() string          { return f.email }
func (f *fakeVault) Data() models.UserData  { return f.data.Clone() }
func (f *fakeVault) Close()                 {}

// newTestApp builds an App over v reading input and stubs the password
// prompt with the given answers.
func newTestApp(t *testing.T, v *fakeVault, input string, passwords ...string) (*App, *bytes.Buffer) {
	t.Helper()

	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	getPassword = func(w io.Writer, prompt string) ([]byte, error) {
		if len(passwords) == 0 {
			t.Fatalf("unexpected password prompt %q", prompt)
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}

	var out bytes.Buffer
	return newApp(v, bufio.NewReader(strings.NewReader(input)), &out), &out
}

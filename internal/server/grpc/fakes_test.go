package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/common"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
	"github.com/dmitrijs2005/maunavault/internal/server/services"
)

type fakeUsers struct {
	authResp *services.AuthResult
	authErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	sessionResp *models.User
	sessionErr  error

	updateErr  error
	signOutErr error

	gotUserID  string
	gotEmail   string
	gotRefresh string
}

func (f *fakeUsers) SignUp(ctx context.Context, email, credential string) (*services.AuthResult, error) {
	f.gotEmail = email
	return f.authResp, f.authErr
}

func (f *fakeUsers) SignIn(ctx context.Context, email, credential string) (*services.AuthResult, error) {
	f.gotEmail = email
	return f.authResp, f.authErr
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.gotRefresh = refreshToken
	return f.refreshResp, f.refreshErr
}

func (f *fakeUsers) GetSession(ctx context.Context, userID string) (*models.User, error) {
	f.gotUserID = userID
	return f.sessionResp, f.sessionErr
}

func (f *fakeUsers) UpdateCredential(ctx context.Context, userID, current, next string) error {
	f.gotUserID = userID
	return f.updateErr
}

func (f *fakeUsers) SignOut(ctx context.Context, userID, refreshToken string) error {
	f.gotUserID = userID
	f.gotRefresh = refreshToken
	return f.signOutErr
}

// fakeRecords keeps one record per user and enforces the version check.
type fakeRecords struct {
	mu      sync.Mutex
	records map[string]*models.Record
	err     error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]*models.Record{}}
}

func (f *fakeRecords) Get(ctx context.Context, userID string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) Insert(ctx context.Context, rec *models.Record) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.records[rec.UserID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	cp := *rec
	cp.Version = 1
	cp.UpdatedAt = time.Now()
	f.records[rec.UserID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRecords) Update(ctx context.Context, userID string, u models.RecordUpdate) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if rec.Version != u.ExpectedVersion {
		return nil, common.ErrVersionConflict
	}
	rec.Ciphertext = u.Ciphertext
	if u.Salt != "" {
		rec.Salt = u.Salt
	}
	if u.KDF != "" {
		rec.KDF = u.KDF
	}
	rec.DataVersion = u.DataVersion
	rec.Version++
	out := *rec
	return &out, nil
}

func (f *fakeRecords) Delete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.records[userID]; !ok {
		return common.ErrorNotFound
	}
	delete(f.records, userID)
	return nil
}

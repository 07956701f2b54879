package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/client"
	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/common"
)

// fakeAuth is an in-memory AuthProvider keyed by email.
type fakeAuth struct {
	mu        sync.Mutex
	users     map[string]string // email -> credential
	ids       map[string]string // email -> user id
	current   *client.Session
	listeners []func(client.SessionEvent)

	// UpdateCredentialErr rejects the update. UpdateCredentialLostErr
	// applies it and then returns the error, like a reply lost in transit.
	UpdateCredentialErr     error
	UpdateCredentialLostErr error
	// RevokeOnUpdate signs the session out during the update call.
	RevokeOnUpdate bool
	SignInErr      error
	ResumeErr      error
	SignOutErr     error
	UpdateCalls    int
	SignInCalls    int
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{}, ids: map[string]string{}}
}

func (f *fakeAuth) session(email string) *client.Session {
	return &client.Session{
		UserID:       f.ids[email],
		Email:        email,
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (f *fakeAuth) SignUp(_ context.Context, email, credential string) (*client.Session, error) {
	f.mu.Lock()
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		return nil, common.ErrorAlreadyExists
	}
	f.users[email] = credential
	f.ids[email] = "user-" + email
	s := f.session(email)
	f.current = s
	f.mu.Unlock()
	f.emit(client.SessionEvent{Type: client.SignedIn, Session: s})
	return s, nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, credential string) (*client.Session, error) {
	f.mu.Lock()
	f.SignInCalls++
	if f.SignInErr != nil {
		f.mu.Unlock()
		return nil, f.SignInErr
	}
	if f.users[email] != credential || credential == "" {
		f.mu.Unlock()
		return nil, client.ErrUnauthorized
	}
	s := f.session(email)
	f.current = s
	f.mu.Unlock()
	f.emit(client.SessionEvent{Type: client.SignedIn, Session: s})
	return s, nil
}

func (f *fakeAuth) Resume(_ context.Context, s *client.Session) (*client.Session, error) {
	if f.ResumeErr != nil {
		return nil, f.ResumeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.current = &cp
	return &cp, nil
}

func (f *fakeAuth) CurrentSession() *client.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAuth) UpdateCredential(_ context.Context, u client.CredentialUpdate) error {
	f.mu.Lock()
	f.UpdateCalls++
	if f.RevokeOnUpdate {
		f.current = nil
		f.mu.Unlock()
		f.emit(client.SessionEvent{Type: client.SignedOut})
		return client.ErrUnauthorized
	}
	defer f.mu.Unlock()
	if f.UpdateCredentialErr != nil {
		return f.UpdateCredentialErr
	}
	if f.current == nil {
		return client.ErrNotSignedIn
	}
	if f.users[f.current.Email] != u.CurrentCredential {
		return client.ErrUnauthorized
	}
	f.users[f.current.Email] = u.NewCredential
	return f.UpdateCredentialLostErr
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
	f.emit(client.SessionEvent{Type: client.SignedOut})
	return f.SignOutErr
}

func (f *fakeAuth) OnSessionChange(fn func(client.SessionEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.listeners[idx] = nil
	}
}

func (f *fakeAuth) emit(ev client.SessionEvent) {
	f.mu.Lock()
	ls := append([]func(client.SessionEvent){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range ls {
		if fn != nil {
			fn(ev)
		}
	}
}

// fakeStore is an in-memory ObjectStore with compare-and-swap updates.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]models.EncryptedRecord

	// updateErrs are returned by successive UpdateRecord calls before the
	// call is applied; a nil entry lets that call through.
	updateErrs []error
	GetErr     error
	// afterGet runs once, after the next successful GetRecord.
	afterGet func()
	Inserts  int
	Updates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]models.EncryptedRecord{}}
}

func (s *fakeStore) GetRecord(_ context.Context, userID string) (*models.EncryptedRecord, error) {
	s.mu.Lock()
	if s.GetErr != nil {
		s.mu.Unlock()
		return nil, s.GetErr
	}
	r, ok := s.records[userID]
	hook := s.afterGet
	s.afterGet = nil
	s.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	if hook != nil {
		hook()
	}
	return &r, nil
}

func (s *fakeStore) InsertRecord(_ context.Context, r *models.EncryptedRecord) (*models.EncryptedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.UserID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	s.Inserts++
	rec := *r
	rec.Version = 1
	rec.UpdatedAt = time.Now()
	s.records[r.UserID] = rec
	return &rec, nil
}

func (s *fakeStore) UpdateRecord(_ context.Context, userID string, u client.RecordUpdate) (*models.EncryptedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updateErrs) > 0 {
		err := s.updateErrs[0]
		s.updateErrs = s.updateErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	rec, ok := s.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if rec.Version != u.ExpectedVersion {
		return nil, common.ErrVersionConflict
	}
	s.Updates++
	rec.Ciphertext = u.Ciphertext
	if u.Salt != "" {
		rec.Salt = u.Salt
	}
	if u.KDF != "" {
		rec.KDF = u.KDF
	}
	rec.DataVersion = u.DataVersion
	rec.Version++
	rec.UpdatedAt = time.Now()
	s.records[userID] = rec
	return &rec, nil
}

func (s *fakeStore) DeleteRecord(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		return common.ErrorNotFound
	}
	delete(s.records, userID)
	return nil
}

func (s *fakeStore) failUpdates(errs ...error) {
	s.mu.Lock()
	s.updateErrs = errs
	s.mu.Unlock()
}

func (s *fakeStore) pendingUpdateErrs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updateErrs)
}

func (s *fakeStore) record(userID string) (models.EncryptedRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[userID]
	return r, ok
}

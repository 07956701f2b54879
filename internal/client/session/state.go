// Package session keeps the in-memory key state of the running client.
//
// The derived key and the decrypted data live only here. Neither is ever
// written to disk, so a restarted client always starts locked.
package session

import (
	"sync"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
	"github.com/dmitrijs2005/maunavault/internal/common"
)

// Status is the lifecycle state of the client session.
type Status int

const (
	LoggedOut Status = iota
	Locked
	Unlocked
)

// String returns the lower-case name shown in the CLI prompt.
func (s Status) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "logged out"
	}
}

// State is safe for concurrent use. Key and data are always set and
// cleared together.
type State struct {
	mu     sync.RWMutex
	userID string
	email  string
	key    []byte
	data   models.UserData
}

// New returns a logged-out State.
func New() *State {
	return &State{}
}

// SignIn records the authenticated identity and drops any key held for a
// previous one.
func (s *State) SignIn(userID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID != userID {
		s.wipe()
	}
	s.userID = userID
	s.email = email
}

// Unlock stores a copy of key together with data for userID. It does
// nothing and returns false when userID is no longer the signed-in
// identity, e.g. because a sign-out arrived while the key was derived.
func (s *State) Unlock(userID string, key []byte, data models.UserData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == "" || s.userID != userID {
		return false
	}
	s.wipe()
	s.key = append([]byte(nil), key...)
	s.data = data.Clone()
	return true
}

// SetData replaces the cached data. It is a no-op while locked.
func (s *State) SetData(data models.UserData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return
	}
	s.data = data.Clone()
}

// Lock drops key and data but keeps the identity.
func (s *State) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
}

// Clear drops everything, returning to LoggedOut.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wipe()
	s.userID = ""
	s.email = ""
}

func (s *State) wipe() {
	common.WipeByteArray(s.key)
	s.key = nil
	s.data = nil
}

// Status derives the lifecycle state from what is held.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.userID == "":
		return LoggedOut
	case s.key == nil:
		return Locked
	default:
		return Unlocked
	}
}

// UserID returns the signed-in identity, or "" when logged out.
func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Email returns the signed-in email, or "" when logged out.
func (s *State) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Key returns a copy of the key, or nil while locked. Callers should wipe
// the copy when done.
func (s *State) Key() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil
	}
	return append([]byte(nil), s.key...)
}

// Data returns a copy of the cached data, or nil while locked.
func (s *State) Data() models.UserData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil
	}
	return s.data.Clone()
}

package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/maunavault/internal/client/models"
)

// Session is an authenticated backend session. It carries no key material
// and may be persisted between runs.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionEventType tells listeners what happened to the session.
type SessionEventType int

const (
	SignedIn SessionEventType = iota + 1
	TokenRefreshed
	SignedOut
)

func (t SessionEventType) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case TokenRefreshed:
		return "token_refreshed"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

type SessionEvent struct {
	Type SessionEventType
	// Session is nil for SignedOut.
	Session *Session
}

// CredentialUpdate replaces the credential of the signed-in user.
type CredentialUpdate struct {
	CurrentCredential string
	NewCredential     string
}

// RecordUpdate is a compare-and-swap write: it succeeds only if the stored
// record still has ExpectedVersion.
type RecordUpdate struct {
	Ciphertext      string
	Salt            string
	KDF             string
	DataVersion     int
	ExpectedVersion int64
}

// AuthProvider authenticates users and owns the session tokens.
type AuthProvider interface {
	SignUp(ctx context.Context, email, credential string) (*Session, error)
	SignIn(ctx context.Context, email, credential string) (*Session, error)
	// Resume adopts a previously persisted session and validates it,
	// refreshing the tokens when needed.
	Resume(ctx context.Context, s *Session) (*Session, error)
	CurrentSession() *Session
	UpdateCredential(ctx context.Context, u CredentialUpdate) error
	SignOut(ctx context.Context) error
	// OnSessionChange registers fn for session events and returns a
	// function that removes it.
	OnSessionChange(fn func(SessionEvent)) (unsubscribe func())
}

// ObjectStore keeps one encrypted record per user.
type ObjectStore interface {
	// GetRecord returns common.ErrorNotFound when the user has no record.
	GetRecord(ctx context.Context, userID string) (*models.EncryptedRecord, error)
	// InsertRecord returns common.ErrorAlreadyExists when a record exists.
	InsertRecord(ctx context.Context, r *models.EncryptedRecord) (*models.EncryptedRecord, error)
	// UpdateRecord returns common.ErrVersionConflict on a stale ExpectedVersion.
	UpdateRecord(ctx context.Context, userID string, u RecordUpdate) (*models.EncryptedRecord, error)
	DeleteRecord(ctx context.Context, userID string) error
}

// Client is the full backend API used by the CLI.
type Client interface {
	AuthProvider
	ObjectStore
	Ping(ctx context.Context) error
	Close() error
}

package proto

import "time"

type SignUpRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

type SignInRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

// AuthResponse is returned by SignUp and SignIn.
type AuthResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type GetSessionRequest struct{}

type GetSessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type UpdateCredentialRequest struct {
	CurrentCredential string `json:"current_credential"`
	NewCredential     string `json:"new_credential"`
}

type UpdateCredentialResponse struct{}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutResponse struct{}

// Record is the wire form of the per-user encrypted record.
type Record struct {
	UserID      string    `json:"user_id"`
	Ciphertext  string    `json:"ciphertext"`
	Salt        string    `json:"salt"`
	KDF         string    `json:"kdf"`
	DataVersion int32     `json:"data_version"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GetRecordRequest struct {
	UserID string `json:"user_id"`
}

type InsertRecordRequest struct {
	Record *Record `json:"record"`
}

// UpdateRecordRequest replaces the record if its current version equals
// ExpectedVersion.
type UpdateRecordRequest struct {
	UserID          string `json:"user_id"`
	Ciphertext      string `json:"ciphertext"`
	Salt            string `json:"salt"`
	KDF             string `json:"kdf"`
	DataVersion     int32  `json:"data_version"`
	ExpectedVersion int64  `json:"expected_version"`
}

type RecordResponse struct {
	Record *Record `json:"record"`
}

type DeleteRecordRequest struct {
	UserID string `json:"user_id"`
}

type DeleteRecordResponse struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// Package models defines the client-side data model of MaunaVault: the
// encrypted record as stored by the backend and the decrypted user data.
package models

import "time"

// EncryptedRecord is the single per-user row held by the object store. The
// ciphertext is opaque outside cryptox; salt and KDF are public parameters
// needed to re-derive the key.
type EncryptedRecord struct {
	UserID      string
	Ciphertext  string
	Salt        string
	KDF         string
	DataVersion int
	// Version is the store's write counter; updates must present the value
	// they read.
	Version   int64
	UpdatedAt time.Time
}

// Export is a decrypted backup of a user's data.
type Export struct {
	ExportedAt time.Time `json:"exported_at"`
	UserID     string    `json:"user_id"`
	Data       UserData  `json:"data"`
}

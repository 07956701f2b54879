// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. CredentialHash is a bcrypt hash of the client-derived
// auth credential; the server never sees the password.
type User struct {
	ID             string
	Email          string
	CredentialHash []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

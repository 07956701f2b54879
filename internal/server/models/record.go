package models

import "time"

// Record is the per-user encrypted record. The server stores Ciphertext as
// an opaque string and bumps Version on every write.
type Record struct {
	UserID      string
	Ciphertext  string
	Salt        string
	KDF         string
	DataVersion int
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecordUpdate is a compare-and-swap write. Empty Salt and KDF keep the
// stored values.
type RecordUpdate struct {
	Ciphertext      string
	Salt            string
	KDF             string
	DataVersion     int
	ExpectedVersion int64
}

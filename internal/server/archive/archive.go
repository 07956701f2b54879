// Package archive keeps copies of encrypted records that are about to be
// overwritten or deleted. The copies are still ciphertext; they let an
// operator restore a record after a botched password change.
package archive

import (
	"context"

	"github.com/dmitrijs2005/maunavault/internal/server/models"
)

type Archiver interface {
	Archive(ctx context.Context, rec *models.Record, reason string) error
}

// Reasons passed to Archive.
const (
	ReasonOverwrite = "overwrite"
	ReasonDelete    = "delete"
)

// Nop discards everything.
type Nop struct{}

func (Nop) Archive(context.Context, *models.Record, string) error { return nil }

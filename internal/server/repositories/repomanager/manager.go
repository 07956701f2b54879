package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/maunavault/internal/dbx"
	"github.com/dmitrijs2005/maunavault/internal/server/repositories/records"
	"github.com/dmitrijs2005/maunavault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/maunavault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Records(db dbx.DBTX) records.Repository
}

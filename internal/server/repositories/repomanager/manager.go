package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/mlmodels"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// run several lookups inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Models(db dbx.DBTX) mlmodels.Repository
}

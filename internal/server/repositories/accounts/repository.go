// Package accounts provides the PostgreSQL-backed account repository.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

// Repository is the storage view of accounts.
//
// GetByID and FindByEmail return common.ErrorNotFound when nothing matches.
// FindByEmail returns common.ErrorIntegrityFault when the email matches more
// than one row.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// Package mlmodels provides the PostgreSQL-backed repository for prediction
// model records.
package mlmodels

import (
	"context"

	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

// Repository is the storage view of prediction models. It does not enforce
// ownership; callers go through the authorization guard.
type Repository interface {
	Create(ctx context.Context, model *models.Model) (*models.Model, error)
	GetByID(ctx context.Context, id int64) (*models.Model, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Model, error)
}

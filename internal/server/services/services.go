// Package services contains server-side business logic. Every read runs in a
// repeatable-read, read-only transaction so that the lookups behind one
// authorization decision observe a single snapshot.
package services

import (
	"context"

	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/mlmodels"
)

// Observer receives the outcome of guarded lookups and predictions.
type Observer interface {
	ObserveDecision(kind auth.Kind, outcome auth.Outcome)
	ObservePrediction(algorithm string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveDecision(auth.Kind, auth.Outcome) {}
func (nopObserver) ObservePrediction(string, error)         {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}

// txLookup adapts transaction-bound repositories to auth.Lookup.
type txLookup struct {
	accounts accounts.Repository
	models   mlmodels.Repository
}

func (l txLookup) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return l.accounts.GetByID(ctx, id)
}

func (l txLookup) GetModel(ctx context.Context, id int64) (*models.Model, error) {
	return l.models.GetByID(ctx, id)
}

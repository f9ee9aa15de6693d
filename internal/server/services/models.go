package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/algorithms"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/repomanager"
)

// ModelService exposes a caller's prediction models and runs them.
type ModelService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	observer    Observer
}

func NewModelService(db *sql.DB, m repomanager.RepositoryManager, o Observer) *ModelService {
	return &ModelService{
		db:          db,
		repomanager: m,
		observer:    observerOrNop(o),
	}
}

// List returns the models owned by caller.
func (s *ModelService) List(ctx context.Context, caller *auth.Identity) ([]*models.Model, error) {
	if caller == nil {
		return nil, common.ErrorUnauthenticated
	}

	var out []*models.Model
	err := dbx.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.repomanager.Models(tx).ListByOwner(ctx, caller.AccountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns model id if caller owns it.
func (s *ModelService) Get(ctx context.Context, caller *auth.Identity, id int64) (*models.Model, error) {
	if caller == nil {
		s.observer.ObserveDecision(auth.KindModel, auth.Unauthenticated)
		return nil, common.ErrorUnauthenticated
	}

	var d auth.Decision
	err := dbx.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		d, err = auth.Authorize(ctx, caller, auth.ModelTarget(id), txLookup{
			accounts: s.repomanager.Accounts(tx),
			models:   s.repomanager.Models(tx),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observer.ObserveDecision(auth.KindModel, d.Outcome)
	if err := d.Err(); err != nil {
		return nil, err
	}
	return d.Model, nil
}

// Predict runs the algorithm named by model id over its stored parameters.
func (s *ModelService) Predict(ctx context.Context, caller *auth.Identity, id int64) (float64, error) {
	m, err := s.Get(ctx, caller, id)
	if err != nil {
		return 0, err
	}

	alg, ok := algorithms.Resolve(m.Algorithm)
	if !ok {
		s.observer.ObservePrediction(m.Algorithm, common.ErrorAlgorithmNotFound)
		return 0, common.ErrorAlgorithmNotFound
	}

	inputs, weights, err := m.Parameters()
	if err != nil {
		s.observer.ObservePrediction(alg.Name(), err)
		return 0, err
	}

	out, err := algorithms.Invoke(alg, inputs, weights)
	s.observer.ObservePrediction(alg.Name(), err)
	if err != nil {
		return 0, err
	}
	return out, nil
}

// Algorithms lists the algorithm names a model may use.
func (s *ModelService) Algorithms(caller *auth.Identity) ([]string, error) {
	if caller == nil {
		return nil, common.ErrorUnauthenticated
	}
	return algorithms.Names(), nil
}

// Create stores a new model for ownerID. The algorithm name must be known.
func (s *ModelService) Create(ctx context.Context, ownerID int64, algorithm string, inputs, weights []float64) (*models.Model, error) {
	if _, ok := algorithms.Resolve(algorithm); !ok {
		return nil, common.ErrorAlgorithmNotFound
	}

	in, err := models.EncodeVector(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedRequest, err)
	}
	w, err := models.EncodeVector(weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedRequest, err)
	}

	var out *models.Model
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).GetByID(ctx, ownerID); err != nil {
			return err
		}
		var err error
		out, err = s.repomanager.Models(tx).Create(ctx, &models.Model{
			OwnerID:   ownerID,
			Algorithm: algorithm,
			Inputs:    in,
			Weights:   w,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating model: %w", err)
	}
	return out, nil
}

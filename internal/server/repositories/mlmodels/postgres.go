package mlmodels

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

// PostgresRepository implements model storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// Inputs and weights live in JSONB columns and are returned undecoded.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts model and sets its ID. Empty vectors are stored as [].
func (r *PostgresRepository) Create(ctx context.Context, model *models.Model) (*models.Model, error) {
	query := `
		INSERT INTO models (owner_id, algorithm, inputs, weights)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	model.Inputs = models.NormalizeVector(model.Inputs)
	model.Weights = models.NormalizeVector(model.Weights)

	if err := r.db.QueryRowContext(ctx, query, model.OwnerID, model.Algorithm, string(model.Inputs), string(model.Weights)).Scan(&model.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return model, nil
}

// GetByID returns the model with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Model, error) {
	query := `
		SELECT id, owner_id, algorithm, inputs, weights
		FROM models
		WHERE id = $1
	`
	m, err := scanModel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// ListByOwner returns the models owned by ownerID ordered by id.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Model, error) {
	query := `
		SELECT id, owner_id, algorithm, inputs, weights
		FROM models
		WHERE owner_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Model, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(s scanner) (*models.Model, error) {
	var (
		m       models.Model
		inputs  []byte
		weights []byte
	)
	if err := s.Scan(&m.ID, &m.OwnerID, &m.Algorithm, &inputs, &weights); err != nil {
		return nil, err
	}
	m.Inputs = models.NormalizeVector(inputs)
	m.Weights = models.NormalizeVector(weights)
	return &m, nil
}

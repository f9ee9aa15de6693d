package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (name, email_address, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Name, account.Email, account.PasswordHash).Scan(&account.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, name, email_address, password_hash FROM accounts
		 WHERE id = $1
		 `

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&account.ID, &account.Name, &account.Email, &account.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// FindByEmail fetches at most two rows so a duplicated email is detected
// instead of silently picking one of the accounts.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, name, email_address, password_hash FROM accounts
		 WHERE email_address = $1
		 LIMIT 2
		 `

	found, err := r.query(ctx, query, email)
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d accounts share email", common.ErrorIntegrityFault, len(found))
	}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query :=
		`SELECT id, name, email_address, password_hash FROM accounts
		 ORDER BY id
		 `

	return r.query(ctx, query)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Account, 0)
	for rows.Next() {
		a := &models.Account{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

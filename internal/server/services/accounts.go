package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/repomanager"
)

// AccountService handles login and read access to accounts.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    auth.Verifier
	observer    Observer
	dummyHash   string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, v auth.Verifier, o Observer) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		verifier:    v,
		observer:    observerOrNop(o),
		dummyHash:   auth.DummyHash(),
	}
}

// Login checks email and password and returns the identity to record in the
// session. An unknown email and a wrong password both yield
// common.ErrorInvalidCredentials, and both pay for one hash comparison.
func (s *AccountService) Login(ctx context.Context, email, password string) (*auth.Identity, error) {
	var account *models.Account
	err := dbx.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		account, err = s.repomanager.Accounts(tx).FindByEmail(ctx, email)
		return err
	})

	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.verifier.Verify(password, s.dummyHash)
		return nil, common.ErrorInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	if !s.verifier.Verify(password, account.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}
	return &auth.Identity{AccountID: account.ID, Email: account.Email}, nil
}

// List returns every account to an authenticated caller.
func (s *AccountService) List(ctx context.Context, caller *auth.Identity) ([]*models.Account, error) {
	if caller == nil {
		return nil, common.ErrorUnauthenticated
	}

	var out []*models.Account
	err := dbx.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.repomanager.Accounts(tx).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns account id if the guard allows caller to see it.
func (s *AccountService) Get(ctx context.Context, caller *auth.Identity, id int64) (*models.Account, error) {
	if caller == nil {
		s.observer.ObserveDecision(auth.KindAccount, auth.Unauthenticated)
		return nil, common.ErrorUnauthenticated
	}

	var d auth.Decision
	err := dbx.ReadSnapshot(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		d, err = auth.Authorize(ctx, caller, auth.AccountTarget(id), txLookup{
			accounts: s.repomanager.Accounts(tx),
			models:   s.repomanager.Models(tx),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observer.ObserveDecision(auth.KindAccount, d.Outcome)
	if err := d.Err(); err != nil {
		return nil, err
	}
	return d.Account, nil
}

// Create provisions a new account with a bcrypt-hashed password.
func (s *AccountService) Create(ctx context.Context, name, email string, password []byte) (*models.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var out *models.Account
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		out, err = s.repomanager.Accounts(tx).Create(ctx, &models.Account{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return out, nil
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/dbx"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/mlmodels"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeAccountsRepo struct {
	byID    map[int64]*models.Account
	byEmail map[string]*models.Account
	findErr error
	getErr  error
	listErr error
	created *models.Account
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	cp := *a
	cp.ID = 100
	f.created = &cp
	return &cp, nil
}

func (f *fakeAccountsRepo) GetByID(_ context.Context, id int64) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccountsRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccountsRepo) List(context.Context) ([]*models.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Account, 0, len(f.byID))
	for id := int64(1); id <= int64(len(f.byID)); id++ {
		out = append(out, f.byID[id])
	}
	return out, nil
}

type fakeModelsRepo struct {
	byID    map[int64]*models.Model
	getErr  error
	created *models.Model
}

func (f *fakeModelsRepo) Create(_ context.Context, m *models.Model) (*models.Model, error) {
	cp := *m
	cp.ID = 200
	f.created = &cp
	return &cp, nil
}

func (f *fakeModelsRepo) GetByID(_ context.Context, id int64) (*models.Model, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m, nil
}

func (f *fakeModelsRepo) ListByOwner(_ context.Context, ownerID int64) ([]*models.Model, error) {
	var out []*models.Model
	for id := int64(1); id <= 10; id++ {
		if m, ok := f.byID[id]; ok && m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	m *fakeModelsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }
func (m *fakeRepoManager) Models(dbx.DBTX) mlmodels.Repository          { return m.m }

// newFixture holds two accounts; Ann owns models 3 and 4, Bob owns 7.
func newFixture() *fakeRepoManager {
	ann := &models.Account{ID: 1, Name: "Ann", Email: "a@x.com", PasswordHash: "hash-p"}
	bob := &models.Account{ID: 2, Name: "Bob", Email: "b@x.com", PasswordHash: "hash-q"}
	return &fakeRepoManager{
		a: &fakeAccountsRepo{
			byID:    map[int64]*models.Account{1: ann, 2: bob},
			byEmail: map[string]*models.Account{ann.Email: ann, bob.Email: bob},
		},
		m: &fakeModelsRepo{byID: map[int64]*models.Model{
			3: {ID: 3, OwnerID: 1, Algorithm: "linear_regression", Inputs: vec(`[1,2,3]`), Weights: vec(`[0.1,0.2,0.3]`)},
			4: {ID: 4, OwnerID: 1, Algorithm: "eval('1')", Inputs: vec(`[1]`), Weights: vec(`[1]`)},
			7: {ID: 7, OwnerID: 2, Algorithm: "perceptron", Inputs: vec(`[1]`), Weights: vec(`[1]`)},
		}},
	}
}

func vec(s string) json.RawMessage { return json.RawMessage(s) }

// fakeVerifier accepts "hash-"+plaintext and records every hash it was asked about.
type fakeVerifier struct {
	hashes []string
}

func (v *fakeVerifier) Verify(plaintext, hash string) bool {
	v.hashes = append(v.hashes, hash)
	return hash == "hash-"+plaintext
}

type decision struct {
	kind    auth.Kind
	outcome auth.Outcome
}

type recordingObserver struct {
	decisions   []decision
	predictions []string
	failures    int
}

func (o *recordingObserver) ObserveDecision(kind auth.Kind, outcome auth.Outcome) {
	o.decisions = append(o.decisions, decision{kind, outcome})
}

func (o *recordingObserver) ObservePrediction(algorithm string, err error) {
	o.predictions = append(o.predictions, algorithm)
	if err != nil {
		o.failures++
	}
}

package httpapi

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/logging"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/modelkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/modelkeeper/internal/server/requestlog"
	"github.com/dmitrijs2005/modelkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
)

const (
	selectModelByID    = `SELECT id, owner_id, algorithm, inputs, weights\s+FROM models\s+WHERE id = \$1`
	selectModelsOwned  = `SELECT id, owner_id, algorithm, inputs, weights\s+FROM models\s+WHERE owner_id = \$1`
	selectAccountByID  = `SELECT id, name, email_address, password_hash FROM accounts\s+WHERE id = \$1`
	selectAccountEmail = `SELECT id, name, email_address, password_hash FROM accounts\s+WHERE email_address = \$1`
	selectAccounts     = `SELECT id, name, email_address, password_hash FROM accounts\s+ORDER BY id`
)

var (
	modelColumns   = []string{"id", "owner_id", "algorithm", "inputs", "weights"}
	accountColumns = []string{"id", "name", "email_address", "password_hash"}
)

type entryRecorder struct {
	mu      sync.Mutex
	entries []requestlog.Entry
}

func (r *entryRecorder) Record(e requestlog.Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return true
}

func (r *entryRecorder) last() requestlog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	sessions *auth.SessionStore
	requests *entryRecorder
	metrics  *metrics.Collector
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rm := repomanager.NewPostgresRepositoryManager()
	f := &fixture{
		db:       db,
		mock:     mock,
		sessions: auth.NewSessionStore([]byte("test-secret"), time.Hour),
		requests: &entryRecorder{},
		metrics:  metrics.NewCollector("test"),
	}
	f.handler = NewRouter(Deps{
		Accounts:       services.NewAccountService(db, rm, auth.BcryptVerifier{}, f.metrics),
		Models:         services.NewModelService(db, rm, f.metrics),
		Sessions:       f.sessions,
		Requests:       f.requests,
		Metrics:        f.metrics,
		MetricsHandler: f.metrics.Handler(),
		Logger:         logging.NewNopLogger(),
	})
	return f
}

func (f *fixture) cookieFor(t *testing.T, accountID int64) *http.Cookie {
	t.Helper()
	tok, _, err := f.sessions.Issue(auth.Identity{AccountID: accountID, Email: "user@example.com"})
	require.NoError(t, err)
	return &http.Cookie{Name: common.SessionCookieName, Value: tok}
}

func (f *fixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// expectModel queues one snapshot transaction returning the model row, or no
// row when algorithm is empty. A missing row is a decision, not a failure, so
// the transaction commits either way.
func (f *fixture) expectModel(id, owner int64, algorithm, inputs, weights string) {
	rows := sqlmock.NewRows(modelColumns)
	if algorithm != "" {
		rows.AddRow(id, owner, algorithm, []byte(inputs), []byte(weights))
	}
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(selectModelByID).WithArgs(id).WillReturnRows(rows)
	f.mock.ExpectCommit()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func nopLogger() logging.Logger { return logging.NewNopLogger() }

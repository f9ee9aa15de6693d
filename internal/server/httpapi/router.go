package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/logging"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/models"
	"github.com/dmitrijs2005/modelkeeper/internal/server/requestlog"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type AccountService interface {
	Login(ctx context.Context, email, password string) (*auth.Identity, error)
	List(ctx context.Context, caller *auth.Identity) ([]*models.Account, error)
	Get(ctx context.Context, caller *auth.Identity, id int64) (*models.Account, error)
}

type ModelService interface {
	List(ctx context.Context, caller *auth.Identity) ([]*models.Model, error)
	Get(ctx context.Context, caller *auth.Identity, id int64) (*models.Model, error)
	Predict(ctx context.Context, caller *auth.Identity, id int64) (float64, error)
	Algorithms(caller *auth.Identity) ([]string, error)
}

// RequestRecorder accepts request log entries without blocking.
type RequestRecorder interface {
	Record(e requestlog.Entry) bool
}

// RequestObserver receives per-request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Deps are the collaborators of the router. Requests, Metrics and
// MetricsHandler are optional.
type Deps struct {
	Accounts       AccountService
	Models         ModelService
	Sessions       *auth.SessionStore
	Requests       RequestRecorder
	Metrics        RequestObserver
	MetricsHandler http.Handler
	Logger         logging.Logger
	SecureCookie   bool
}

type handler struct {
	accounts     AccountService
	models       ModelService
	sessions     *auth.SessionStore
	requests     RequestRecorder
	metrics      RequestObserver
	logger       logging.Logger
	validate     *validator.Validate
	secureCookie bool
}

// NewRouter builds the API handler.
func NewRouter(d Deps) http.Handler {
	h := &handler{
		accounts:     d.Accounts,
		models:       d.Models,
		sessions:     d.Sessions,
		requests:     d.Requests,
		metrics:      d.Metrics,
		logger:       d.Logger.With("module", "httpapi"),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		secureCookie: d.SecureCookie,
	}

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(h.session)
	router.Use(h.accessLog)
	router.Use(chimiddleware.Recoverer)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found."})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed."})
	})

	router.Get("/health", h.health)
	if d.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	router.Post("/login/", h.login)
	router.Post("/logout/", h.logout)

	router.Route("/users", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.Get("/{id}/", h.getAccount)
	})

	router.Route("/models", func(r chi.Router) {
		r.Get("/", h.listModels)
		r.Get("/{id}/", h.getModel)
		r.Get("/{id}/predict/", h.predict)
	})

	router.Get("/algorithms/", h.listAlgorithms)

	return router
}

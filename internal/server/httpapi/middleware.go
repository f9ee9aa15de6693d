package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/dmitrijs2005/modelkeeper/internal/server/requestlog"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// session resolves the session cookie into an auth.Identity on the request
// context. Missing or invalid cookies leave the request anonymous.
func (h *handler) session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(common.SessionCookieName)
		if err == nil && c.Value != "" {
			if id, err := h.sessions.Resolve(c.Value); err == nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			} else {
				h.logger.Debug(r.Context(), "session rejected", "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog hands one entry per request to the request log and the metrics
// collector. It never reads the request body.
func (h *handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := chimiddleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(common.RequestIDHeaderName, reqID)
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(start)

		if h.metrics != nil {
			h.metrics.ObserveRequest(r.Method, route, status, elapsed)
		}
		if h.requests != nil {
			e := requestlog.Entry{
				RequestID:  reqID,
				Time:       start,
				Method:     r.Method,
				Endpoint:   route,
				Path:       r.URL.Path,
				Status:     status,
				Duration:   elapsed,
				RemoteAddr: r.RemoteAddr,
			}
			if id := auth.IdentityFromContext(r.Context()); id != nil {
				e.AccountID = id.AccountID
			}
			h.requests.Record(e)
		}
	})
}

// routePattern returns the registered route for r. chi drops the trailing
// slash from RoutePattern, so it is restored when the matched path had one.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			if strings.HasSuffix(r.URL.Path, "/") && !strings.HasSuffix(p, "/") {
				p += "/"
			}
			return p
		}
	}
	return "unmatched"
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrorMalformedRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, r, common.ErrorMalformedRequest)
		return
	}

	id, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, expires, err := h.sessions.Issue(*id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if old, err := r.Cookie(common.SessionCookieName); err == nil {
		h.sessions.Revoke(old.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Login successful."})
}

// logout always succeeds; a presented session is revoked.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		h.sessions.Revoke(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful."})
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	out, err := h.accounts.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"all_users": out})
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	a, err := h.accounts.Get(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": a})
}

func (h *handler) listModels(w http.ResponseWriter, r *http.Request) {
	out, err := h.models.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"all_models": out})
}

func (h *handler) getModel(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	m, err := h.models.Get(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": m})
}

func (h *handler) predict(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	out, err := h.models.Predict(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"output": out})
}

func (h *handler) listAlgorithms(w http.ResponseWriter, r *http.Request) {
	names, err := h.models.Algorithms(auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"algorithms": names})
}

// target reads the caller and the {id} path parameter. Authentication is
// checked first, so a malformed id is only reported as not found to a
// logged-in caller.
func (h *handler) target(w http.ResponseWriter, r *http.Request) (*auth.Identity, int64, bool) {
	caller := auth.IdentityFromContext(r.Context())
	if caller == nil {
		h.writeError(w, r, common.ErrorUnauthenticated)
		return nil, 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, r, common.ErrorNotFound)
		return nil, 0, false
	}
	return caller, id, true
}

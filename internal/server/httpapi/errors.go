package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters only for errors wrapping more than one sentinel.
var errorMappings = []errorMapping{
	{common.ErrorMalformedRequest, http.StatusBadRequest, "Malformed request: no email or password"},
	{common.ErrorInvalidCredentials, http.StatusUnauthorized, "Wrong credentials."},
	{common.ErrorUnauthenticated, http.StatusUnauthorized, "Not authenticated."},
	{common.ErrorForbidden, http.StatusForbidden, "Not authorized."},
	{common.ErrorNotFound, http.StatusNotFound, "Not found."},
	{common.ErrorAlgorithmNotFound, http.StatusBadRequest, "Unknown algorithm."},
	{common.ErrorInvalidModelParameters, http.StatusBadRequest, "Invalid model parameters."},
}

func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal error."
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, messageResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/pageforge/internal/apiclient"
	"github.com/matthewbaird/pageforge/internal/pagestore"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// pageKeyParam extracts the pageKey path parameter.
func pageKeyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "pageKey")
	if key == "" {
		writeError(w, http.StatusBadRequest, "INVALID_KEY", "pageKey is required")
		return "", false
	}
	return key, true
}

// storeErrorToHTTP maps store and upstream errors to HTTP responses.
func storeErrorToHTTP(w http.ResponseWriter, err error) {
	var transport *apiclient.TransportError
	var malformed *apiclient.MalformedResponseError
	switch {
	case errors.Is(err, pagestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.As(err, &transport):
		writeError(w, http.StatusBadGateway, "UPSTREAM_FAILED", err.Error())
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadGateway, "UPSTREAM_MALFORMED", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// Package httputil centralizes JSON response and error envelope writing so
// every handler speaks the same dialect.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "procurement/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the JSON request body into T. On a malformed body it writes
// the bad request envelope and reports false; the caller just returns.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}

// WriteError translates a domain error into the standard error envelope.
// Internal errors omit the description so store details never leak to
// clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message()
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

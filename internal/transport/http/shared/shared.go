// Package shared centralizes the JSON response envelopes so every handler
// renders success and failure identically.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates domain errors into the wire shapes the reference
// deployment uses:
//
//	validation  -> 400 {"errors": [...]}      (the accumulated list)
//	not found   -> 410 {"message": "..."}     (gone, never resolvable)
//	other codes -> status {"error": "..."}
//
// Internal errors always render a non-specific message; whatever detail the
// error carries stays server-side.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	switch code {
	case dErrors.CodeValidation:
		WriteJSON(w, status, map[string]any{"errors": dErrors.ProblemsOf(err)})
	case dErrors.CodeNotFound:
		WriteJSON(w, status, map[string]string{"message": messageOf(err)})
	case dErrors.CodeInternal:
		WriteJSON(w, status, map[string]string{"error": "An unexpected error occurred."})
	default:
		WriteJSON(w, status, map[string]string{"error": messageOf(err)})
	}
}

func messageOf(err error) string {
	var de *dErrors.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "An unexpected error occurred."
}

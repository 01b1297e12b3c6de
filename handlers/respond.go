package handlers

import (
	"encoding/json"
	"net/http"

	"travelbuddy-server/middleware"
	"travelbuddy-server/utils/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON parses a request body into dst, rejecting unknown fields so
// mistyped payloads fail loudly instead of being silently dropped.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.ErrInvalidInput
	}
	return nil
}

// callerID extracts the authenticated user id or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

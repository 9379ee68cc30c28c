package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"task-manager/logging"
	"task-manager/models"
)

// errorBody is the wire shape of every error response: a stable machine
// readable kind plus a human readable message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logging.Logger.Warnf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
		}
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %v", err)
		writeJSON(w, status, errorBody{Error: "internal_error", Message: "Something went wrong"})
		return
	}
	writeJSON(w, status, errorBody{Error: models.ErrorKind(err), Message: err.Error()})
}

// decodePatch enforces the patch allow-list: the whole request is rejected
// when any key outside allowed appears, with no partial application. It
// decodes the body into dst and returns the set of keys present, so handlers
// can distinguish explicit nulls from absent fields.
func decodePatch(r *http.Request, allowed []string, dst interface{}) (map[string]bool, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read request body", models.ErrValidation)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body", models.ErrValidation)
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, key := range allowed {
		allowedSet[key] = true
	}
	present := make(map[string]bool, len(raw))
	for key := range raw {
		if !allowedSet[key] {
			return nil, fmt.Errorf("%w: invalid updates, field %q is not allowed", models.ErrValidation, key)
		}
		present[key] = true
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON body", models.ErrValidation)
	}
	return present, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", models.ErrValidation)
	}
	return nil
}

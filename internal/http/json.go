package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// DecodeJSON decodes JSON from the request body into the destination.
// Returns true if successful, false if there was an error (error response
// already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeSystemError(w)
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// Wire messages are fixed contracts with the frontend; internal error detail
// never reaches a response body.
const (
	msgSessionExpired = "Session expired or invalid. Please log in again."
	msgSystemError    = "A system error has occurred"
	msgNoAction       = "No action specified"
)

// writeSessionExpired writes the 401 shape that tells the client to restart
// the login flow rather than retry the request.
func writeSessionExpired(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"message":      msgSessionExpired,
		"restartLogin": true,
	})
}

// writeSystemError writes the generic 500 shape for unhandled faults.
func writeSystemError(w http.ResponseWriter) {
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"message": msgSystemError,
	})
}

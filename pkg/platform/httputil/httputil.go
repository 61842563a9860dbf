// Package httputil holds the JSON response helpers shared by handlers.
package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"

	dErrors "userflat/pkg/domain-errors"
)

// WriteJSON writes v with the given status. v may implement json.Marshaler.
// HTML characters are not escaped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// WriteError translates a coded error into the {"error","error_description"}
// envelope. Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// ToHTTPStatus maps a domain code onto an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeMethodInvalid:
		return http.StatusMethodNotAllowed
	case dErrors.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

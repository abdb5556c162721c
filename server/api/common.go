package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/compose-network/nitro-wallet/server/api/middleware"
)

// ErrorCodeHeader carries the error code of a failed request so access logs
// can report it without parsing the body.
const ErrorCodeHeader = "X-Error-Code"

// ErrorBody is the error envelope written by WriteError.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// Detailer is implemented by errors that describe themselves in an error
// response, e.g. the process a relay rejection belongs to.
type Detailer interface {
	ErrorDetails() map[string]any
}

// WriteError writes the error envelope. details may be a map or a Detailer.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	body := ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	switch d := details.(type) {
	case nil:
	case Detailer:
		body.Details = d.ErrorDetails()
	case map[string]any:
		body.Details = d
	default:
		body.Details = map[string]any{"detail": d}
	}

	w.Header().Set(ErrorCodeHeader, code)
	WriteJSON(w, status, errorResponse{Error: body})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error is a non-2xx answer decoded by a client of this API.
type Error struct {
	Status int
	ErrorBody
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// ParseError decodes an error response. Bodies that are not an error envelope
// become the message.
func ParseError(status int, payload []byte) *Error {
	var resp errorResponse
	if err := json.Unmarshal(payload, &resp); err != nil || resp.Error.Code == "" {
		return &Error{Status: status, ErrorBody: ErrorBody{Message: string(payload)}}
	}
	return &Error{Status: status, ErrorBody: resp.Error}
}

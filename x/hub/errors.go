package hub

import (
	"errors"
	"fmt"
)

var (
	ErrProcessMissing               = errors.New("hub: process missing")
	ErrSignatureOrTurnNumberInvalid = errors.New("hub: signature or turn number invalid")
	ErrTurnNumberConflict           = errors.New("hub: turn number conflict")
	ErrValidation                   = errors.New("hub: validation failed")
)

// Code classifies a relay failure for callers.
type Code string

const (
	CodeProcessMissing               Code = "process_missing"
	CodeSignatureOrTurnNumberInvalid Code = "signature_or_turn_number_invalid"
	CodeTurnNumberConflict           Code = "turn_number_conflict"
	CodeValidation                   Code = "validation_failed"
	CodeInternal                     Code = "internal_error"
)

// RelayError is returned for every rejected relay request. Cause wraps one of
// the package sentinels, so errors.Is works on the RelayError itself.
type RelayError struct {
	Code      Code
	ProcessID string
	Cause     error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s for process %q: %v", e.Code, e.ProcessID, e.Cause)
}

func (e *RelayError) Unwrap() error {
	return e.Cause
}

// ErrorDetails describes the rejection in an HTTP error response.
func (e *RelayError) ErrorDetails() map[string]any {
	return map[string]any{"processId": e.ProcessID, "code": string(e.Code)}
}

func newRelayError(processID string, sentinel error, format string, args ...any) *RelayError {
	cause := sentinel
	if format != "" {
		cause = fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	}
	return &RelayError{Code: CodeOf(sentinel), ProcessID: processID, Cause: cause}
}

// CodeOf maps err to its Code. Errors outside the relay taxonomy are internal.
func CodeOf(err error) Code {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Code
	}
	switch {
	case errors.Is(err, ErrProcessMissing):
		return CodeProcessMissing
	case errors.Is(err, ErrSignatureOrTurnNumberInvalid):
		return CodeSignatureOrTurnNumberInvalid
	case errors.Is(err, ErrTurnNumberConflict):
		return CodeTurnNumberConflict
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternal
	}
}

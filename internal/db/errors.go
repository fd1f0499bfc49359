package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for backend operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	ErrNoHosts       = errors.New("db: at least one host is required")
	ErrNoBackend     = errors.New("db: no backend available")
)

// Op names used for error context and metrics labels.
const (
	OpSearch = "search"
	OpCount  = "count"
	OpPing   = "ping"
	OpGet    = "GET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ResponseError is a non-2xx reply from the search engine.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

func (e *ResponseError) Error() string {
	switch {
	case e.Type != "" && e.Reason != "":
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Type, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("status %d: %s", e.Status, e.Reason)
	default:
		return fmt.Sprintf("status %d", e.Status)
	}
}

// Unwrap maps missing indexes onto ErrIndexNotFound.
func (e *ResponseError) Unwrap() error {
	if e.Type == "index_not_found_exception" {
		return ErrIndexNotFound
	}
	return nil
}

// ParseResponseError decodes an engine error body. Both the object form
// {"error":{"type":..,"reason":..}} and the plain string form are accepted;
// anything else keeps the trimmed body as the reason.
func ParseResponseError(status int, body []byte) *ResponseError {
	re := &ResponseError{Status: status}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		re.Reason = strings.TrimSpace(string(body))
		return re
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil {
		re.Type, re.Reason = detail.Type, detail.Reason
		return re
	}

	var reason string
	if err := json.Unmarshal(envelope.Error, &reason); err == nil {
		re.Reason = reason
	}
	return re
}

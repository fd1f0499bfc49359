package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeUnknownType        ErrorCode = "unknown_type"
	CodeIndexNotFound      ErrorCode = "index_not_found"
	CodeBackendError       ErrorCode = "backend_error"
	CodeBackendUnavailable ErrorCode = "backend_unavailable"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle an error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrUnknownType, http.StatusNotFound, CodeUnknownType),
	sentinelHandler(db.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
	responseErrorHandler,
	sentinelHandler(db.ErrNoBackend, http.StatusServiceUnavailable, CodeBackendUnavailable),
	unavailableHandler,
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// responseErrorHandler reports a non-2xx engine reply as a bad gateway.
func responseErrorHandler(w http.ResponseWriter, err error) bool {
	var re *db.ResponseError
	if !errors.As(err, &re) {
		return false
	}
	msg := "search backend rejected the request"
	if re.Type != "" {
		msg += ": " + re.Type
	}
	writeError(w, http.StatusBadGateway, CodeBackendError, msg)
	return true
}

// unavailableHandler reports a failed store or engine round trip.
func unavailableHandler(w http.ResponseWriter, err error) bool {
	var de *db.Error
	if !errors.As(err, &de) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, CodeBackendUnavailable, domain.ErrBackendUnavailable.Error())
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

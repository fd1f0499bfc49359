package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType signals a document type no search service is bound to.
	ErrUnknownType = errors.New("unknown document type")
	// ErrBackendUnavailable signals that the search engine could not serve a request.
	ErrBackendUnavailable = errors.New("search backend unavailable")
)

// UnknownTypeError wraps ErrUnknownType with the requested type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownType.Error(), e.Type)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// NewUnknownType creates an unknown type error.
func NewUnknownType(docType string) error {
	return &UnknownTypeError{Type: docType}
}

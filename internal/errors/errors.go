// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when a record is missing or belongs to another organization.
type ErrNotFound struct {
	Resource string
	ID       string
	// Message replaces the generated text when set.
	Message string
}

func (e *ErrNotFound) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// ErrForbidden is returned when the caller's role or organization does not allow the action.
type ErrForbidden struct {
	Reason string
}

func (e *ErrForbidden) Error() string {
	if e.Reason == "" {
		return "Forbidden"
	}
	return e.Reason
}

type ErrUnauthorized struct{}

func (e *ErrUnauthorized) Error() string { return "Unauthorized" }

// ErrValidation carries the first invalid field and its message.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string { return e.Message }

// ErrConflict is returned when the current state of a record forbids the transition.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string { return e.Message }

// ErrUpstream wraps a non-2xx answer from an outbound API.
type ErrUpstream struct {
	StatusCode int
	Detail     string
}

func (e *ErrUpstream) Error() string { return e.Detail }

// Helper constructors
func NewNotFound(resource, id string) error {
	return &ErrNotFound{Resource: resource, ID: id}
}

func NewNotFoundMessage(resource, message string) error {
	return &ErrNotFound{Resource: resource, Message: message}
}

func NewForbidden(reason string) error {
	return &ErrForbidden{Reason: reason}
}

func NewUnauthorized() error {
	return &ErrUnauthorized{}
}

func NewValidation(field, message string) error {
	return &ErrValidation{Field: field, Message: message}
}

func NewConflict(message string) error {
	return &ErrConflict{Message: message}
}

func NewUpstream(status int, detail string) error {
	return &ErrUpstream{StatusCode: status, Detail: detail}
}

// StatusCode maps an application error to the HTTP status it is answered with.
// Unknown errors are internal.
func StatusCode(err error) int {
	var (
		notFound     *ErrNotFound
		forbidden    *ErrForbidden
		unauthorized *ErrUnauthorized
		validation   *ErrValidation
		conflict     *ErrConflict
		upstream     *ErrUpstream
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		if upstream.StatusCode >= 400 {
			return upstream.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsExpected reports whether err is one of the typed application errors whose message
// can be shown to the caller as is.
func IsExpected(err error) bool {
	return StatusCode(err) != http.StatusInternalServerError
}

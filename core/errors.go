package core

import "github.com/pkg/errors"

var (
	ErrUnauthenticated  = NewAuthError(errors.New("user not authenticated"), false)
	ErrPermissionDenied = NewAuthError(errors.New("permission denied"), true)
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing (or out of tenant) resource.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// DuplicateError is a unique constraint violation on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func NewDuplicateError(field string, err error) error {
	return &DuplicateError{Field: field, Err: err}
}

func (err DuplicateError) Error() string {
	if err.Err == nil {
		return err.Field + " already exists"
	}
	return err.Err.Error()
}

// AuthError is a missing/invalid identity, or a forbidden one.
type AuthError struct {
	Err       error
	Forbidden bool
}

func NewAuthError(err error, forbidden bool) error {
	return &AuthError{Err: err, Forbidden: forbidden}
}

func (err AuthError) Error() string {
	return err.Err.Error()
}

// DependencyError is a failure of a downstream service (email, push, ...).
type DependencyError struct {
	Service string
	Err     error
}

func NewDependencyError(service string, err error) error {
	return &DependencyError{Service: service, Err: err}
}

func (err DependencyError) Error() string {
	return err.Service + ": " + err.Err.Error()
}

func (err DependencyError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsDuplicate(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

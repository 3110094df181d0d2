package service

import "errors"

// Error taxonomy returned by the services. Controllers map each kind to an
// HTTP status; anything else is reported as an internal error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("email already registered")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("not the owner of this todo")
	ErrNotFound     = errors.New("todo not found")
	ErrInternal     = errors.New("internal error")
)

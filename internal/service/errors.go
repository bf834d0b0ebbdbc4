package service

import "errors"

// Sentinel errors shared by all services. The HTTP layer maps every error to
// the uniform failure envelope, so these exist mainly for logging and tests.
var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrTemplateNotFound = errors.New("Template not found")
	ErrInvalidInput     = errors.New("invalid input")
)

package domain

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrMalformed    = errors.New("malformed")
	ErrConflict     = errors.New("conflict")
)

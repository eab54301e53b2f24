package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrInvalidPriority    = errors.New("invalid priority value")
	ErrInvalidPosition    = errors.New("position must not be negative")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCrossBoardMove     = errors.New("columns cannot move between boards")
)

// ErrConcurrencyConflict indicates that the underlying storage rejected an
// update because a newer version of the entity is already persisted.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write lost a race: a stale version or a
	// serialization failure. The unit of work may be retried.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate is a unique key violation.
	ErrDuplicate = errors.New("duplicate")
)

package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrJobTerminal is returned when an update targets a job that has
	// already reached a terminal state.
	ErrJobTerminal = errors.New("job is in a terminal state")
)

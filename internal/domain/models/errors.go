package models

import "errors"

var (
	// ErrNotFound indicates a missing batch, template, task or record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the entity's lifecycle forbids the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument indicates malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrComputation indicates malformed or missing cost inputs.
	ErrComputation = errors.New("computation error")
	// ErrSyncFailure indicates the finance ledger could not be written.
	ErrSyncFailure = errors.New("finance sync failure")
)

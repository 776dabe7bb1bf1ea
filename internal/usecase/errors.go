package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence wraps store failures; the operation was rolled back
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidProcedure rejects intake data with blank names
	ErrInvalidProcedure = errors.New("invalid procedure")

	ErrAuditLogNotFound = errors.New("audit log not found")

	// errStoreConflict means the store disagreed with the allocator
	errStoreConflict = errors.New("store rejected the change")
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

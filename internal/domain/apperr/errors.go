package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrProfileIncomplete = errors.New("profile incomplete")
)

// StorageError marks a transient persistence failure. Callers may retry the single write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "storage error"
	}
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorage(err error) (*StorageError, bool) {
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		return nil, false
	}
	return storageErr, true
}

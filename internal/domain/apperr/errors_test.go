package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestStorageWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("record swipe", cause)

	storageErr, ok := IsStorage(fmt.Errorf("decide: %w", err))
	if !ok {
		t.Fatalf("expected storage error, got %v", err)
	}
	if storageErr.Op != "record swipe" {
		t.Fatalf("unexpected op: %s", storageErr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through errors.Is")
	}
}

func TestStorageKeepsNilAndExistingWrapper(t *testing.T) {
	if Storage("noop", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}

	inner := Storage("inner", errors.New("boom"))
	outer := Storage("outer", inner)
	storageErr, ok := IsStorage(outer)
	if !ok || storageErr.Op != "inner" {
		t.Fatalf("expected inner storage error to be preserved, got %v", outer)
	}
}

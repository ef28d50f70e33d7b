package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("forbidden - admin access required")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrPartialWrite      = errors.New("order stored but not fully indexed")
	ErrKeyCollision      = errors.New("order key collision")
)

// PartialWriteError reports that the order record was written but one of the
// index appends failed. Key identifies the record so the index can be repaired.
type PartialWriteError struct {
	Key   string
	Index string
	Err   error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("append %s to %s: %v", e.Key, e.Index, e.Err)
}

func (e *PartialWriteError) Unwrap() []error { return []error{ErrPartialWrite, e.Err} }

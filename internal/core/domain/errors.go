package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is a client error, surfaced immediately and never retried.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrStoreUnavailable marks a transient backend failure a stage recovers
	// from by degrading to the remaining strategies.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStageTimeout marks a stage that exceeded its time budget.
	ErrStageTimeout = errors.New("stage timeout")
	// ErrInternal marks an invariant violation, e.g. malformed rank data
	// reaching fusion. Always surfaced, never converted to degradation.
	ErrInternal = errors.New("internal invariant violated")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

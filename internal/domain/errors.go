package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller may not act on the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument indicates malformed input; nothing was written.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTransition indicates an order status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrEmptyCart is returned when checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrConflict indicates concurrent-update contention that outlived the retry budget.
	ErrConflict = errors.New("conflict")
	// ErrStorage matches every StorageError.
	ErrStorage = errors.New("storage error")
)

// StorageError wraps a persistence or blob-store failure that is not one of
// the domain errors above.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// AsStorage passes domain errors through untouched and wraps anything else in
// a StorageError.
func AsStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrNotFound, ErrAlreadyExists, ErrForbidden, ErrInvalidArgument,
		ErrInvalidTransition, ErrEmptyCart, ErrConflict, ErrStorage,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}

package services

import (
	"errors"
	"fmt"

	"github.com/mrlokans/bookshelf/internal/database"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrForbidden = errors.New("book belongs to another user")
)

// PersistenceError reports a failed write or read against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConstraintViolation reports whether the store rejected the data itself,
// as opposed to failing to process it.
func (e *PersistenceError) ConstraintViolation() bool {
	return errors.Is(e.Err, database.ErrConstraint) || errors.Is(e.Err, database.ErrDuplicate)
}

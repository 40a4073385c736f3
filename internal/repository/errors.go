package repository

import "errors"

// ErrNotFound is returned when a scoped lookup matches no row. A row owned by
// a different user/account is reported the same way as a missing one.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a unique constraint.
var ErrDuplicate = errors.New("already exists")

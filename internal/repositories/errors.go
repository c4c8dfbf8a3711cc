package repositories

import "errors"

// ErrNotFound is wrapped by every repository lookup that finds no record.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique value is already taken.
var ErrDuplicate = errors.New("already exists")

package repositories

import "errors"

// Store-level errors. Implementations wrap driver errors into these so
// services can map them without knowing the driver.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrReferenceMissing = errors.New("referenced record does not exist")
)

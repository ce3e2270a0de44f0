package storage

import "errors"

var (
	ErrOptimisticLock = errors.New("optimistic lock conflict")
	ErrNegativeStock  = errors.New("stock quantity must not be negative")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrNotFound       = errors.New("record not found")
)

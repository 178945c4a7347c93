package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity indicates a quantity below one where a positive count is required.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

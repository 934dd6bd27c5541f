package models

import (
	"errors"
	"fmt"
)

// Error constants for record operations
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrInvalidRecordID = errors.New("invalid record ID")
)

// ParseError reports a stored collection that could not be decoded.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stored collection at %q is not a valid JSON array: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

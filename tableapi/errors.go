package tableapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned by paging when _start is greater than _end.
	ErrInvalidRange = errors.New("tableapi: _start is greater than _end")

	// ErrMalformedBody is returned when a write body is not a JSON object.
	ErrMalformedBody = errors.New("tableapi: request body must be a JSON object")
)

// FieldError reports a _like filter on a field some record does not have.
type FieldError struct {
	Field    string
	RecordID any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("tableapi: field %q not present on record %v", e.Field, e.RecordID)
}

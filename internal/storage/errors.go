package storage

import "errors"

var (
	// ErrNotFound is returned when a report does not exist.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidReport is returned when a report lacks an ID, owner or sector.
	ErrInvalidReport = errors.New("report is missing required fields")
)

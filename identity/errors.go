package identity

import "errors"

var (
	// ErrNotFound is returned when no principal or session matches the criteria.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when saving a principal whose email is already taken.
	ErrDuplicate = errors.New("duplicate principal")
	// ErrUnknownField is returned by UpdateFields for a field that is not a principal attribute.
	ErrUnknownField = errors.New("unknown principal field")
	// ErrInvalidCriteria is returned when a lookup names no attribute to match on.
	ErrInvalidCriteria = errors.New("invalid lookup criteria")
)

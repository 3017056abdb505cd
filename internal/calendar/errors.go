package calendar

import "errors"

// Standard error definitions
var (
	ErrInvalidDateOverride    = errors.New("invalid date override")
	ErrUnknownDay             = errors.New("unknown day")
	ErrDayLocked              = errors.New("day is locked")
	ErrInvalidTable           = errors.New("invalid calendar table")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

package schedule

import "errors"

// ErrInvalidSpec is returned when a job spec can not be parsed.
var ErrInvalidSpec = errors.New("invalid job schedule spec")

package metrics

import "errors"

// ErrDuplicateInstrument is returned when two registered objects share a
// metric name.
var ErrDuplicateInstrument = errors.New("instrument name already registered")

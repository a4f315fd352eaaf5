package inspect

import "errors"

var (
	// ErrDuplicateID is returned when two registered objects share an id.
	ErrDuplicateID = errors.New("inspectable id already registered")
	// ErrNoSource is returned by NewHandler when source is nil.
	ErrNoSource = errors.New("snapshot source is nil")
)

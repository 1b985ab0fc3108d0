package seasondb

import "errors"

// ErrNotFound is returned when no archived save code matches.
var ErrNotFound = errors.New("season save not found")

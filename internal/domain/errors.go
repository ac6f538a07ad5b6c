package domain

import "errors"

// ErrInvalidPath marks a file path that cannot be used as given, such as
// an empty or blank argument. Wrapped by the package that rejects it.
var ErrInvalidPath = errors.New("invalid path")

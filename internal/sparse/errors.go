package sparse

import "errors"

var (
	// ErrInvalidMatrix is returned when arrays do not describe a well-formed matrix
	ErrInvalidMatrix = errors.New("sparse: invalid matrix")

	// ErrDimensionMismatch is returned when two shapes that must agree do not
	ErrDimensionMismatch = errors.New("sparse: dimension mismatch")
)

package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for dynamical-system operations.
var (
	// ErrNotHomogeneous indicates a coordinate polynomial with mixed total degrees.
	ErrNotHomogeneous = errors.New("dynamo: coordinate polynomial is not homogeneous")

	// ErrDegreeMismatch indicates coordinate polynomials of different degrees.
	ErrDegreeMismatch = errors.New("dynamo: coordinate polynomials have different degrees")

	// ErrDimensionMismatch indicates a point or map of the wrong projective dimension.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between point and map")

	// ErrZeroPoint indicates an all-zero coordinate vector.
	ErrZeroPoint = errors.New("dynamo: all coordinates are zero")

	// ErrNotMorphism indicates the map has a base point (it is not a morphism).
	ErrNotMorphism = errors.New("dynamo: map is not a morphism")

	// ErrBadPrime indicates a prime of bad reduction was supplied where a good one is required.
	ErrBadPrime = errors.New("dynamo: prime of bad reduction")

	// ErrConflictingOptions indicates both an error bound and an iteration count were given.
	ErrConflictingOptions = errors.New("dynamo: error bound and iteration count are mutually exclusive")

	// ErrPrecision indicates p-adic precision was exhausted during iteration.
	ErrPrecision = errors.New("dynamo: insufficient precision")

	// ErrNoGoodPrimes indicates the prime range contained no usable prime.
	ErrNoGoodPrimes = errors.New("dynamo: no primes of good reduction in range")

	// ErrUnsupported indicates an operation not available for the map's field or dimension.
	ErrUnsupported = errors.New("dynamo: unsupported for this field or dimension")

	// ErrInvalidPlace indicates a place that is neither the archimedean one nor a prime.
	ErrInvalidPlace = errors.New("dynamo: invalid place")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// PrecisionError wraps ErrPrecision with the iteration at which the
// working precision ran out.
type PrecisionError struct {
	Place     Place
	Iteration int
	Digits    int
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("%s at %s after %d iterations (%d digits)", ErrPrecision, e.Place, e.Iteration, e.Digits)
}

func (e *PrecisionError) Unwrap() error {
	return ErrPrecision
}

// PrimeError wraps an error with the prime that produced it.
type PrimeError struct {
	Prime   int64
	Wrapped error
}

func (e *PrimeError) Error() string {
	return fmt.Sprintf("prime %d: %v", e.Prime, e.Wrapped)
}

func (e *PrimeError) Unwrap() error {
	return e.Wrapped
}

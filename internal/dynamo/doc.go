// Package dynamo provides the core types for arithmetic dynamics on
// projective space.
//
// A dynamical system is a homogeneous polynomial map F: P^N -> P^N of
// degree d. The package defines:
//
//   - [Field]: the field of definition (Q, F_p, or an opaque generic field)
//   - [Map]: the coordinate polynomials with validation, iteration and orbits
//   - [Point]: a projective point with exact rational coordinates
//   - [Place]: an absolute value on Q (archimedean or p-adic)
//   - [Config]: option set shared by the sieve, height and lifting engines
//
// # Example
//
//	f, _ := dynamo.ParseMap(dynamo.Rational(), []string{"x", "y"}, "x^2 - 29/16*y^2", "y^2")
//	p, _ := dynamo.PointFromInts(3, 4)
//	orbit, _ := f.Orbit(p, 0, 4, true)
//
// # Thread Safety
//
// Map and Point values are immutable after construction and may be shared
// between goroutines. [ParallelFor] fans work out over a bounded worker
// pool.
package dynamo

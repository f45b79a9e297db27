// Package compute dispatches arithmetic-dynamics operations on the base
// field of a map.
//
// Each field variant has its own backend:
//
//   - rational: the full pipeline (sieve, heights, p-adic lifting)
//   - finite: exact enumeration on P^N(F_p); heights are undefined
//   - generic: declared fields with no arithmetic height theory; every
//     number-theoretic operation reports [dynamo.ErrUnsupported]
//
// Callers pick the backend once with [Select]:
//
//	b := compute.Select(f)
//	pts, err := b.PeriodicPoints(ctx, cfg)
//
// # Thread Safety
//
// Backends hold only the immutable map and may be shared between
// goroutines.
package compute

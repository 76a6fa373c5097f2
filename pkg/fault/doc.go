// Package fault provides a structured failure taxonomy and propagation
// contract for faultline and its tooling.
//
// The package implements a kind-based error system where each failure
// record has:
//   - Exactly one Kind drawn from a registered taxonomy
//   - A category fixed at kind registration: Recoverable or Programming
//   - A non-empty message describing the failure site
//   - Optional structured context (key-value pairs)
//   - Optional cause and base sentinel errors
//
// Records are immutable: derivation helpers (WithContext, WithBase)
// return clones, and causes are only set at construction time, so cause
// chains are acyclic and safe to share across goroutines.
//
// Propagation is ordinary error returning. Three primitives complete
// the contract:
//   - Match runs an ordered handler list against a failure,
//     first-matching-predicate wins, and a fall-through re-propagates
//     the identical record. A matched handler recovers with a value or
//     re-raises; silent swallowing has no primitive.
//   - WithResource scopes an acquire/release pair around a body and
//     guarantees release exactly once on every exit path, with release
//     failures chaining the original failure rather than hiding it.
//   - Dispatch hands an unhandled record to the Reporter collaborator
//     exactly once at the top of the chain. Recoverable records
//     arriving there are design gaps (see IsDesignGap); reporter
//     implementations log the two categories distinctly.
//
// Example usage:
//
//	rec := fault.New(fault.KindMalformedInput, "bad age: -1").
//		WithContext("field", "age")
//
//	value, err := fault.Match(rec,
//		fault.Handler[int]{When: fault.In(fault.KindMalformedInput), Then: recoverWithDefault},
//		fault.Handler[int]{When: fault.Any, Then: reportAndAbort},
//	)
//
//	fmt.Println(fault.UserString(rec))  // User-friendly message
//	fmt.Println(fault.DebugString(rec)) // Full chain details
package fault

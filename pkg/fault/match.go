package fault

import "errors"

// Predicate reports whether a handler applies to a record. Handlers are
// listed most specific first, so predicate order is the catch order.
type Predicate func(*Record) bool

// In matches records whose kind is one of the given kinds.
func In(kinds ...Kind) Predicate {
	return func(r *Record) bool {
		if r == nil {
			return false
		}
		for _, kind := range kinds {
			if r.kind == kind {
				return true
			}
		}
		return false
	}
}

// InCategory matches records whose kind belongs to the given category.
func InCategory(category Category) Predicate {
	return func(r *Record) bool {
		return r != nil && r.kind.category == category
	}
}

// Transient matches records of transient kinds.
func Transient(r *Record) bool {
	return r != nil && r.kind.transient
}

// Any matches every record. Use it as the final catch-all handler.
func Any(r *Record) bool {
	return r != nil
}

// Handler pairs a predicate with a recovery action. The action either
// recovers with a value (nil error) or re-raises; there is no way to
// match a record and silently drop it.
type Handler[T any] struct {
	When Predicate
	Then func(*Record) (T, error)
}

// Match evaluates handlers in listed order against err and runs the
// first one whose predicate contains the record's kind. A foreign error
// is adapted via From for predicate evaluation only.
//
// Outcomes:
//   - no handler matches (or the list is empty): err is returned
//     unchanged, exactly as it came in, so it keeps propagating;
//   - the winning handler returns a value: Match returns it with a nil
//     error and propagation stops;
//   - the winning handler returns an error: that error propagates, and
//     if it does not already chain the original, the original is
//     attached as its terminal cause. A handled failure can be
//     replaced, never discarded.
func Match[T any](err error, handlers ...Handler[T]) (T, error) {
	var zero T
	if err == nil {
		return zero, nil
	}
	rec := From(err)
	for _, handler := range handlers {
		if handler.When == nil || !handler.When(rec) {
			continue
		}
		if handler.Then == nil {
			break
		}
		value, herr := handler.Then(rec)
		if herr == nil {
			return value, nil
		}
		return zero, raisedFrom(herr, err)
	}
	return zero, err
}

// raisedFrom links the original failure into a handler-raised error.
// Re-raising the original (or anything already chaining it) passes
// through untouched.
func raisedFrom(herr, original error) error {
	if herr == original || errors.Is(herr, original) {
		return herr
	}
	return attach(herr, original)
}

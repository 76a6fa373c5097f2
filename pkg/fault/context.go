package fault

import (
	"context"
	"errors"
)

// FromContext translates a finished context into a Record: KindTimeout
// for a deadline expiry, KindCancelled otherwise. Returns nil while ctx
// is still live. Cancellation propagates exactly like any other
// failure, so resource release and handler ordering behave identically
// for faults and cancellations.
func FromContext(ctx context.Context) *Record {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindTimeout, "deadline exceeded", err)
	default:
		return Wrap(KindCancelled, "operation cancelled", err)
	}
}

// KindOf classifies any error: a Record's own kind, KindTimeout or
// KindCancelled for context errors, KindUnknown for everything else.
// The zero Kind is returned only for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return Kind{}
	}
	if rec, ok := err.(*Record); ok {
		return rec.kind
	}
	return adoptKind(err)
}

// IsKind reports whether err classifies as the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsTransient reports whether err classifies as a transient kind, one
// whose failures are expected to clear on retry.
func IsTransient(err error) bool {
	return KindOf(err).transient
}

// IsCancelled reports whether err represents cancellation of the
// owning task.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

package fault

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record is an immutable failure record: one kind, a non-empty message,
// optional structured context, and an optional cause forming a
// singly-linked chain back to the original failure site. Causes are
// only ever set at construction time from already-existing errors, so
// chains are acyclic by construction. Derivation helpers return clones;
// a Record never changes after it is built.
type Record struct {
	kind    Kind
	message string
	context map[string]any
	cause   error
	base    error
}

// New creates a Record at the failure site. An empty message or the
// zero Kind is a contract violation: New panics instead of returning a
// malformed record.
func New(kind Kind, message string) *Record {
	mustValid(kind, message)
	return &Record{kind: kind, message: message}
}

// Newf creates a Record with a formatted message.
func Newf(kind Kind, format string, args ...any) *Record {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a Record and attaches a cause error. The cause chain is
// preserved in full; nothing about the cause is rewritten.
func Wrap(kind Kind, message string, cause error) *Record {
	mustValid(kind, message)
	return &Record{kind: kind, message: message, cause: cause}
}

// Wrapf creates a Record with a formatted message and a cause.
func Wrapf(kind Kind, cause error, format string, args ...any) *Record {
	return Wrap(kind, fmt.Sprintf(format, args...), cause)
}

// mustValid enforces the construction contract. Violations are
// programming errors local to the caller, not propagatable records.
func mustValid(kind Kind, message string) {
	if kind.IsZero() {
		panic("fault: record constructed with unregistered kind")
	}
	if strings.TrimSpace(message) == "" {
		panic(fmt.Sprintf("fault: record of kind %q constructed with empty message", kind.name))
	}
}

// From adapts any error into a Record view. Records pass through
// unchanged. A foreign error is adopted: context cancellation and
// deadline errors map to KindCancelled and KindTimeout, an error that
// wraps a Record somewhere in its chain takes that record's kind, and
// anything else becomes KindUnknown. The adopted record keeps the full
// original as its cause.
func From(err error) *Record {
	if err == nil {
		return nil
	}
	if rec, ok := err.(*Record); ok {
		return rec
	}
	return &Record{kind: adoptKind(err), message: err.Error(), cause: err}
}

func adoptKind(err error) Kind {
	var rec *Record
	switch {
	case errors.As(err, &rec):
		return rec.kind
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}
	return KindUnknown
}

// Error implements the error interface, rendering the kind, message,
// and cause chain.
func (r *Record) Error() string {
	if r == nil {
		return ""
	}
	if r.cause != nil {
		return fmt.Sprintf("[%s] %s: %s", r.kind, r.message, r.cause.Error())
	}
	return fmt.Sprintf("[%s] %s", r.kind, r.message)
}

// Unwrap returns the immediate wrapped error (cause).
// This follows Go's error wrapping convention where Unwrap() returns
// the direct cause, not the base sentinel.
func (r *Record) Unwrap() error {
	if r == nil {
		return nil
	}
	return r.cause
}

// Is implements error matching for sentinel records.
// This allows errors.Is(err, sentinel) to match the base sentinel
// even though Unwrap() returns the cause.
func (r *Record) Is(target error) bool {
	if r == nil {
		return false
	}
	if r.base != nil && errors.Is(r.base, target) {
		return true
	}
	return errors.Is(r.cause, target)
}

// Kind returns the record's primary kind.
func (r *Record) Kind() Kind {
	if r == nil {
		return Kind{}
	}
	return r.kind
}

// Category returns the category of the record's kind.
func (r *Record) Category() Category {
	if r == nil {
		return ""
	}
	return r.kind.category
}

// Message returns the failure message.
func (r *Record) Message() string {
	if r == nil {
		return ""
	}
	return r.message
}

// Context returns a copy of the structured context.
func (r *Record) Context() map[string]any {
	if r == nil || len(r.context) == 0 {
		return nil
	}
	return cloneContext(r.context)
}

// Cause returns the wrapped error, if any.
func (r *Record) Cause() error {
	if r == nil {
		return nil
	}
	return r.cause
}

// Base returns the sentinel base error, if any.
func (r *Record) Base() error {
	if r == nil {
		return nil
	}
	return r.base
}

// WithContext adds a context key/value pair.
// Returns a new record with the added context; the receiver is never
// mutated.
func (r *Record) WithContext(key string, value any) *Record {
	if r == nil {
		return nil
	}
	clone := r.clone()
	if clone.context == nil {
		clone.context = make(map[string]any)
	}
	clone.context[key] = value
	return clone
}

// WithContextMap merges a context map into the record context.
// Always returns a clone, even if ctx is empty.
func (r *Record) WithContextMap(ctx map[string]any) *Record {
	if r == nil {
		return nil
	}
	clone := r.clone()
	if len(ctx) > 0 {
		if clone.context == nil {
			clone.context = make(map[string]any, len(ctx))
		}
		for key, value := range ctx {
			clone.context[key] = value
		}
	}
	return clone
}

// WithBase sets the sentinel base error used for errors.Is matching.
// Returns a new record with the base set; the receiver is never
// mutated.
func (r *Record) WithBase(base error) *Record {
	if r == nil {
		return nil
	}
	clone := r.clone()
	clone.base = base
	return clone
}

func (r *Record) clone() *Record {
	return &Record{
		kind:    r.kind,
		message: r.message,
		context: cloneContext(r.context),
		cause:   r.cause,
		base:    r.base,
	}
}

func cloneContext(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	clone := make(map[string]any, len(ctx))
	for key, value := range ctx {
		clone[key] = value
	}
	return clone
}

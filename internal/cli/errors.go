package cli

// This file defines error handling utilities for the CLI, including:
//   - Sentinel errors for the CLI's failure conditions
//   - Constructors that turn sentinels into fault records
//   - Structured error logging with context
//   - Debug mode management for error output

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"faultline/pkg/fault"
)

var (
	debugMode   bool
	debugModeMu sync.RWMutex
)

// SetDebugMode sets the global debug mode flag.
// When enabled, logStructuredError will output structured error logs to terminal.
func SetDebugMode(enabled bool) {
	debugModeMu.Lock()
	defer debugModeMu.Unlock()
	debugMode = enabled
}

// IsDebugMode returns whether debug mode is enabled.
func IsDebugMode() bool {
	debugModeMu.RLock()
	defer debugModeMu.RUnlock()
	return debugMode
}

type errorSpec struct {
	kind    fault.Kind
	message string
}

// newSentinelError creates a sentinel error and registers its kind in
// errorSpecs in one step, so the definition and the classification
// cannot drift apart.
func newSentinelError(msg string, kind fault.Kind) error {
	err := errors.New(msg)
	errorSpecs[err] = errorSpec{kind: kind, message: msg}
	return err
}

// errorSpecs maps sentinel errors to their kinds and messages.
// Populated automatically by newSentinelError() during variable initialization.
// Must be declared before sentinel errors to ensure proper initialization order.
var errorSpecs = make(map[error]errorSpec)

// Sentinel errors for CLI operations.
var (
	// General errors.
	ErrGetHomeDirectoryFailed = newSentinelError("failed to get home directory", fault.KindIO)

	// Decode errors.
	ErrEnvelopeInputRequired = newSentinelError("envelope input is required", fault.KindMalformedInput)
	ErrEnvelopeReadFailed    = newSentinelError("failed to read envelope", fault.KindIO)
	ErrEnvelopeDecodeFailed  = newSentinelError("failed to decode envelope", fault.KindMalformedInput)

	// Journal errors.
	ErrJournalOpenFailed  = newSentinelError("failed to open journal", fault.KindIO)
	ErrJournalListFailed  = newSentinelError("failed to list journal entries", fault.KindIO)
	ErrJournalPruneFailed = newSentinelError("failed to prune journal entries", fault.KindIO)
	ErrInvalidPruneAge    = newSentinelError("invalid prune age", fault.KindMalformedInput)
	ErrUnknownKindFilter  = newSentinelError("unknown kind filter", fault.KindMalformedInput)

	// Policy errors.
	ErrPolicyExists     = newSentinelError("policy file already exists", fault.KindConflict)
	ErrPolicyLoadFailed = newSentinelError("failed to load policy", fault.KindIO)
	ErrPolicySaveFailed = newSentinelError("failed to save policy", fault.KindIO)
	ErrPolicyInvalid    = newSentinelError("policy validation failed", fault.KindMalformedInput)
	ErrPolicyNotFound   = newSentinelError("no policy file found", fault.KindResourceUnavailable)

	// Self-test errors.
	ErrSelfTestFailed = newSentinelError("self-test failed", fault.KindInternal)
)

func specFor(base error) errorSpec {
	spec, ok := errorSpecs[base]
	if ok {
		return spec
	}
	return errorSpec{kind: fault.KindUnknown, message: "cli failure"}
}

// newWithSentinel creates a fault record classified by the sentinel.
// The record matches the sentinel under errors.Is; msg overrides the
// sentinel's default message when non-empty.
func newWithSentinel(base error, msg string) *fault.Record {
	spec := specFor(base)
	if msg == "" {
		msg = spec.message
	}
	return fault.New(spec.kind, msg).WithBase(base)
}

// wrapWithSentinel wraps a cause in a fault record classified by the
// sentinel.
func wrapWithSentinel(base, cause error, msg string) *fault.Record {
	spec := specFor(base)
	if msg == "" {
		msg = spec.message
	}
	return fault.Wrap(spec.kind, msg, cause).WithBase(base)
}

// wrapWithSentinelAndContext wraps an error with additional structured context.
// This is useful for adding debugging information like paths, kind names, etc.
func wrapWithSentinelAndContext(base, cause error, msg string, context map[string]any) *fault.Record {
	rec := wrapWithSentinel(base, cause, msg)
	if len(context) > 0 {
		return rec.WithContextMap(context)
	}
	return rec
}

// logStructuredError logs an error with structured fields to terminal.
// Only logs when debug mode is enabled (via --debug flag).
// The zap logger is configured with console encoding, so structured fields
// are displayed in a human-readable format in the terminal.
//
// This extracts all context from the fault record and logs it with
// structured fields:
// - error.kind: "MalformedInput"
// - error.category: "recoverable"
// - error.context.path: "/home/user/.faultline/policy.yaml"
// - error.context.kind_filter: "Timeout"
func logStructuredError(logger *zap.Logger, err error, msg string) {
	if logger == nil || err == nil || !IsDebugMode() {
		return
	}

	var rec *fault.Record
	if errors.As(err, &rec) {
		fields := []zap.Field{
			zap.String("error.kind", rec.Kind().Name()),
			zap.String("error.category", string(rec.Category())),
			zap.String("error.message", rec.Message()),
			zap.Error(err),
		}

		// Add all context fields as individual zap fields for structured output
		if ctx := rec.Context(); ctx != nil {
			for key, value := range ctx {
				fields = append(fields, zap.Any("error.context."+key, value))
			}
		}

		// Add cause if present (use distinct field name to avoid duplicate "error" field)
		if cause := rec.Cause(); cause != nil {
			fields = append(fields, zap.NamedError("error.cause", cause))
		}

		logger.Error(msg, fields...)
	} else {
		// Fallback for errors that carry no record
		logger.Error(msg, zap.Error(err))
	}
}

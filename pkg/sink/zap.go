package sink

import (
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

// Zap reports records through a zap logger. The zap logger is typically
// configured with console encoding, so structured fields are displayed
// in a human-readable format in the terminal.
//
// Each record is broken out into individual fields for log aggregation:
//   - error.kind: "MalformedInput"
//   - error.category: "recoverable"
//   - error.message: "bad age: -1"
//   - error.context.field: "age"
//   - error.cause: the underlying cause, when present
//
// A recoverable record reaching a reporter means a handler that should
// exist does not, so it is logged under a distinct message from
// programming faults.
type Zap struct {
	logger *zap.Logger
}

// NewZap returns a reporter writing to logger.
func NewZap(logger *zap.Logger) *Zap {
	return &Zap{logger: logger}
}

// Report implements fault.Reporter.
func (z *Zap) Report(rec *fault.Record) {
	if z == nil || z.logger == nil || rec == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error.kind", rec.Kind().Name()),
		zap.String("error.category", string(rec.Category())),
		zap.String("error.message", rec.Message()),
		zap.Error(rec),
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

	if fault.IsDesignGap(rec) {
		z.logger.Error("unhandled recoverable fault", fields...)
		return
	}
	z.logger.Error("programming fault", fields...)
}

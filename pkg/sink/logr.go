package sink

import (
	"github.com/go-logr/logr"

	"faultline/pkg/fault"
)

// Logr reports records through a logr.Logger, for hosts that
// standardize on logr rather than zap. Field names mirror the zap
// reporter so aggregation pipelines see the same keys regardless of
// which logger backs them.
type Logr struct {
	logger logr.Logger
}

// NewLogr returns a reporter writing to logger.
func NewLogr(logger logr.Logger) *Logr {
	return &Logr{logger: logger}
}

// Report implements fault.Reporter.
func (l *Logr) Report(rec *fault.Record) {
	if l == nil || rec == nil {
		return
	}

	// Build structured key-value pairs for the logr backend
	keysAndValues := []interface{}{
		"error.kind", rec.Kind().Name(),
		"error.category", string(rec.Category()),
		"error.message", rec.Message(),
	}

	if ctx := rec.Context(); ctx != nil {
		for key, value := range ctx {
			keysAndValues = append(keysAndValues, "error.context."+key, value)
		}
	}

	if cause := rec.Cause(); cause != nil {
		keysAndValues = append(keysAndValues, "error.cause", cause.Error())
	}

	if fault.IsDesignGap(rec) {
		l.logger.Error(rec, "unhandled recoverable fault", keysAndValues...)
		return
	}
	l.logger.Error(rec, "programming fault", keysAndValues...)
}

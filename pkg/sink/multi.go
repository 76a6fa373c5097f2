package sink

import "faultline/pkg/fault"

// Multi fans each report out to every reporter in order. Reporters are
// invoked synchronously, so the exactly-once contract holds per sink.
type Multi struct {
	reporters []fault.Reporter
}

// NewMulti returns a reporter forwarding to each non-nil reporter.
func NewMulti(reporters ...fault.Reporter) *Multi {
	kept := make([]fault.Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &Multi{reporters: kept}
}

// Report implements fault.Reporter.
func (m *Multi) Report(rec *fault.Record) {
	if m == nil || rec == nil {
		return
	}
	for _, r := range m.reporters {
		r.Report(rec)
	}
}

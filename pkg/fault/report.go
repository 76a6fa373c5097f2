package fault

// Reporter is the single collaborator interface at the top of a
// propagation chain. It receives each unhandled record exactly once.
// The core never formats, persists, or transmits records; that is the
// reporter implementation's job.
type Reporter interface {
	Report(*Record)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(*Record)

// Report implements Reporter.
func (f ReporterFunc) Report(r *Record) {
	f(r)
}

// Discard is a Reporter that drops every record.
var Discard Reporter = ReporterFunc(func(*Record) {})

// Dispatch delivers an unhandled error to the reporter. Call it once,
// at the top of a propagation chain, after the last Match has had its
// chance. A nil error means the chain completed and nothing is
// reported. Foreign errors are adopted via From so the reporter always
// sees a Record carrying the full cause chain.
func Dispatch(reporter Reporter, err error) {
	if err == nil || reporter == nil {
		return
	}
	reporter.Report(From(err))
}

// IsDesignGap reports whether a record reaching the top-level reporter
// indicates a missing handler. Recoverable kinds are expected to be
// matched somewhere on the chain before reporting; programming kinds
// are expected to arrive here.
func IsDesignGap(r *Record) bool {
	return r != nil && r.kind.category == Recoverable
}

package sink

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"

	"faultline/pkg/fault"
)

// Prometheus counts reported records as Prometheus metrics.
type Prometheus struct {
	once       sync.Once
	reports    *prom.CounterVec
	designGaps prom.Counter
}

// NewPrometheus constructs and registers the fault metrics (idempotent).
func NewPrometheus(reg *prom.Registry) *Prometheus {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	p := &Prometheus{}
	p.once.Do(func() {
		p.reports = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "faultline",
			Name:      "failures_total",
			Help:      "Reported faults by kind and category",
		}, []string{"kind", "category"})
		p.designGaps = prom.NewCounter(prom.CounterOpts{
			Namespace: "faultline",
			Name:      "design_gaps_total",
			Help:      "Recoverable faults that escaped every handler",
		})
		reg.MustRegister(p.reports, p.designGaps)
	})
	return p
}

// Report implements fault.Reporter.
func (p *Prometheus) Report(rec *fault.Record) {
	if p == nil || p.reports == nil || rec == nil {
		return
	}
	p.reports.WithLabelValues(rec.Kind().Name(), string(rec.Category())).Inc()
	if fault.IsDesignGap(rec) {
		p.designGaps.Inc()
	}
}

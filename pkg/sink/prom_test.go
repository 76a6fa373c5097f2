package sink

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"faultline/pkg/fault"
)

func TestPrometheusReport(t *testing.T) {
	reg := prom.NewRegistry()
	p := NewPrometheus(reg)

	p.Report(fault.New(fault.KindMalformedInput, "bad age: -1"))
	p.Report(fault.New(fault.KindMalformedInput, "bad name: empty"))
	p.Report(fault.New(fault.KindInternal, "invariant broken"))

	if got := testutil.ToFloat64(p.reports.WithLabelValues("MalformedInput", "recoverable")); got != 2 {
		t.Errorf("reports{MalformedInput,recoverable} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.reports.WithLabelValues("Internal", "programming")); got != 1 {
		t.Errorf("reports{Internal,programming} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.designGaps); got != 2 {
		t.Errorf("design gaps = %v, want 2", got)
	}

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusNilSafe(t *testing.T) {
	var p *Prometheus
	p.Report(fault.New(fault.KindIO, "x"))

	NewPrometheus(nil).Report(nil)
}

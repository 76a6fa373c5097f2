package cli

// This file implements the "selftest" command. It runs a scripted
// failure scenario end to end and verifies the propagation contract:
// scoped release, first-match handling, and a quiet reporter.

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

const selfTestDefaultAge = 18

// SelfTestManager runs the scripted failure scenario.
type SelfTestManager struct {
	printer *Printer
	logger  *zap.Logger
}

// NewSelfTestManager creates a SelfTestManager writing through the given printer.
func NewSelfTestManager(printer *Printer, logger *zap.Logger) *SelfTestManager {
	return &SelfTestManager{
		printer: printer,
		logger:  logger,
	}
}

// DefaultSelfTestManager returns a SelfTestManager using the default printer.
func DefaultSelfTestManager(logger *zap.Logger) *SelfTestManager {
	return NewSelfTestManager(DefaultPrinter, logger)
}

// NewSelfTestCmd builds the selftest subcommand.
func NewSelfTestCmd(logger *zap.Logger) *cobra.Command {
	mgr := DefaultSelfTestManager(logger)
	return NewSelfTestCmdWithManager(mgr)
}

// NewSelfTestCmdWithManager returns the selftest subcommand using the provided manager.
func NewSelfTestCmdWithManager(mgr *SelfTestManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the failure handling self-test",
		Long:  "Raise a failure inside a resource scope, recover it with a matching handler, and verify the propagation contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mgr.Run()
		},
	}

	return cmd
}

// Run executes the scenario and verifies each contract point.
func (m *SelfTestManager) Run() error {
	m.printer.Section("Failure handling self-test")

	var released int
	var recovered bool
	var catchAllHit bool
	var reported []*fault.Record
	reporter := fault.ReporterFunc(func(rec *fault.Record) {
		reported = append(reported, rec)
	})

	m.printer.Step("raising MalformedInput inside a resource scope")
	_, err := fault.WithResource(
		func() (string, error) { return "age-reader", nil },
		func(string) error {
			released++
			return nil
		},
		func(string) (int, error) {
			return 0, fault.New(fault.KindMalformedInput, "bad age: -1")
		},
	)
	if err != nil {
		m.printer.Printf("%s\n", fault.DebugString(err))
	}

	m.printer.Step("matching against [MalformedInput, catch-all] handlers")
	age, err := fault.Match(err,
		fault.Handler[int]{
			When: fault.In(fault.KindMalformedInput),
			Then: func(*fault.Record) (int, error) {
				recovered = true
				return selfTestDefaultAge, nil
			},
		},
		fault.Handler[int]{
			When: fault.Any,
			Then: func(rec *fault.Record) (int, error) {
				catchAllHit = true
				return 0, rec
			},
		},
	)

	m.printer.Step("dispatching whatever survived to the reporter")
	fault.Dispatch(reporter, err)

	checks := []struct {
		name string
		ok   bool
	}{
		{"specific handler recovered the failure", recovered},
		{fmt.Sprintf("recovered with default age %d", selfTestDefaultAge), err == nil && age == selfTestDefaultAge},
		{"catch-all handler was never consulted", !catchAllHit},
		{"resource released exactly once", released == 1},
		{"nothing reached the reporter", len(reported) == 0},
	}

	failures := 0
	for _, check := range checks {
		if check.ok {
			m.printer.Success(check.name)
			continue
		}
		failures++
		m.printer.Error(check.name)
	}

	if failures > 0 {
		err := newWithSentinel(ErrSelfTestFailed, fmt.Sprintf("self-test failed: %d of %d checks failed", failures, len(checks)))
		logStructuredError(m.logger, err, "Self-test failed")
		return err
	}

	m.printer.Success(fmt.Sprintf("All %d checks passed", len(checks)))
	m.logger.Debug("self-test passed", zap.Int("checks", len(checks)))
	return nil
}

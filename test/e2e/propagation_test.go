// Package e2e exercises the failure taxonomy end to end, the way a
// consuming application would: raising failures deep inside resource
// scopes, matching on the way up, and reporting whatever survives at
// the top of the chain.
//
// These tests use real collaborators where they can run without
// external services (the journal on a temp database); network sinks
// are covered by their own package tests.
//
// Run with: go test -v ./test/e2e/...
// Skip with: go test -short ./...
package e2e

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"faultline/internal/journal"
	"faultline/internal/policy"
	"faultline/pkg/fault"
	"faultline/pkg/sink"
)

// skipIfShort skips the test if running in short mode.
func skipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
}

// captureReporter records every dispatched record.
type captureReporter struct {
	records []*fault.Record
}

func (c *captureReporter) Report(rec *fault.Record) {
	c.records = append(c.records, rec)
}

// TestBadAgeScenario runs the canonical recovery script: a malformed
// value read from a real file inside a resource scope, a specific
// handler that recovers with a default, and a catch-all that must
// never fire.
func TestBadAgeScenario(t *testing.T) {
	skipIfShort(t)

	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("age: -1\n"), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	var released int
	capture := &captureReporter{}

	parseAge := func() (int, error) {
		return fault.WithResource(
			func() (*os.File, error) { return os.Open(path) },
			func(f *os.File) error {
				released++
				return f.Close()
			},
			func(f *os.File) (int, error) {
				data, err := io.ReadAll(f)
				if err != nil {
					return 0, fault.Wrap(fault.KindIO, "read input", err)
				}
				value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "age:"))
				age, err := strconv.Atoi(value)
				if err != nil {
					return 0, fault.Wrapf(fault.KindMalformedInput, err, "bad age: %s", value)
				}
				if age < 0 {
					return 0, fault.Newf(fault.KindMalformedInput, "bad age: %d", age)
				}
				return age, nil
			},
		)
	}

	_, raised := parseAge()
	if raised == nil {
		t.Fatal("expected a raised failure")
	}
	rec := fault.From(raised)
	if rec.Kind() != fault.KindMalformedInput {
		t.Fatalf("expected MalformedInput, got %v", rec.Kind())
	}
	if rec.Message() != "bad age: -1" {
		t.Fatalf("expected message 'bad age: -1', got %q", rec.Message())
	}
	t.Log("MalformedInput raised inside the resource scope")

	var catchAllHits int
	age, err := fault.Match(raised,
		fault.Handler[int]{
			When: fault.In(fault.KindMalformedInput),
			Then: func(*fault.Record) (int, error) { return 18, nil },
		},
		fault.Handler[int]{
			When: fault.Any,
			Then: func(r *fault.Record) (int, error) {
				catchAllHits++
				return 0, r
			},
		},
	)
	fault.Dispatch(capture, err)

	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if age != 18 {
		t.Fatalf("expected default age 18, got %d", age)
	}
	if catchAllHits != 0 {
		t.Fatalf("catch-all fired %d times, want 0", catchAllHits)
	}
	if released != 1 {
		t.Fatalf("release ran %d times, want exactly 1", released)
	}
	if len(capture.records) != 0 {
		t.Fatalf("reporter received %d records, want 0", len(capture.records))
	}
	t.Log("Specific handler recovered; nothing reached the reporter")
}

// TestCancellationReleasesInReverseOrder cancels a task inside nested
// resource scopes and verifies cancellation propagates like any other
// failure: releases run innermost first, and a recoverable-category
// handler can still observe it.
func TestCancellationReleasesInReverseOrder(t *testing.T) {
	skipIfShort(t)

	ctx, cancel := context.WithCancel(context.Background())

	var releaseOrder []string
	release := func(name string) func(string) error {
		return func(string) error {
			releaseOrder = append(releaseOrder, name)
			return nil
		}
	}

	_, err := fault.WithResource(
		func() (string, error) { return "outer", nil },
		release("outer"),
		func(string) (int, error) {
			return fault.WithResource(
				func() (string, error) { return "inner", nil },
				release("inner"),
				func(string) (int, error) {
					cancel()
					if rec := fault.FromContext(ctx); rec != nil {
						return 0, rec
					}
					return 42, nil
				},
			)
		},
	)

	if err == nil {
		t.Fatal("expected cancellation to propagate")
	}
	if !fault.IsCancelled(err) {
		t.Fatalf("expected Cancelled, got %v", fault.KindOf(err))
	}
	if len(releaseOrder) != 2 || releaseOrder[0] != "inner" || releaseOrder[1] != "outer" {
		t.Fatalf("releases out of order: %v", releaseOrder)
	}

	handled := false
	_, err = fault.Match(err,
		fault.Handler[int]{
			When: fault.In(fault.KindTimeout),
			Then: func(*fault.Record) (int, error) { return 0, nil },
		},
		fault.Handler[int]{
			When: fault.InCategory(fault.Recoverable),
			Then: func(*fault.Record) (int, error) {
				handled = true
				return 0, nil
			},
		},
	)
	if err != nil {
		t.Fatalf("expected category handler to recover, got %v", err)
	}
	if !handled {
		t.Fatal("expected the recoverable-category handler to fire")
	}
	t.Log("Cancellation released resources innermost-first and was handled by category")
}

// TestDesignGapReachesJournal drives an unhandled recoverable failure
// through a policy filter into a real journal and verifies exactly one
// persisted report, then mutes the kind and verifies silence.
func TestDesignGapReachesJournal(t *testing.T) {
	skipIfShort(t)

	j, err := journal.OpenAt(filepath.Join(t.TempDir(), "journal.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()

	capture := &captureReporter{}
	active := policy.Default()
	reporter := active.Filter(sink.NewMulti(j, capture))

	raised := fault.Wrap(fault.KindTimeout, "fetch stalled", context.DeadlineExceeded)

	// Handlers that do not cover Timeout: the failure falls through
	// unchanged.
	_, err = fault.Match[int](raised,
		fault.Handler[int]{
			When: fault.In(fault.KindIO),
			Then: func(*fault.Record) (int, error) { return 0, nil },
		},
	)
	if err != raised {
		t.Fatalf("fall-through must re-propagate the identical record, got %v", err)
	}
	fault.Dispatch(reporter, err)

	if len(capture.records) != 1 {
		t.Fatalf("reporter received %d records, want 1", len(capture.records))
	}
	if !fault.IsDesignGap(capture.records[0]) {
		t.Fatal("unhandled recoverable failure should be flagged as a design gap")
	}

	entries, err := j.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("failed to list journal: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal holds %d entries, want 1", len(entries))
	}
	if entries[0].Kind != "Timeout" || !entries[0].Transient {
		t.Fatalf("unexpected journal entry: %+v", entries[0])
	}
	t.Log("Design gap persisted to the journal exactly once")

	// Mute the kind and dispatch again: nothing new may arrive.
	muted := &policy.Policy{Kinds: map[string]policy.Rule{"Timeout": {Mute: true}}}
	mutedReporter := muted.Filter(sink.NewMulti(j, capture))
	fault.Dispatch(mutedReporter, raised)

	if len(capture.records) != 1 {
		t.Fatalf("muted kind still reached the reporter: %d records", len(capture.records))
	}
	entries, err = j.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("failed to list journal: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("muted kind still reached the journal: %d entries", len(entries))
	}
	t.Log("Muted kind was dropped before every sink")
}

// TestPolicyHotReloadSwapsFilter verifies a running application can
// follow policy file edits: the watcher picks up the saved change and
// the next dispatch honors the new mute rules without a restart.
func TestPolicyHotReloadSwapsFilter(t *testing.T) {
	skipIfShort(t)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := policy.Save(policy.Default(), path); err != nil {
		t.Fatalf("failed to save policy: %v", err)
	}

	var mu sync.Mutex
	active := policy.Default()
	reloads := make(chan struct{}, 8)

	w, err := policy.NewWatcher(path, zap.NewNop(), func(p *policy.Policy) {
		mu.Lock()
		active = p
		mu.Unlock()
		select {
		case reloads <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	capture := &captureReporter{}
	dispatch := func(rec *fault.Record) {
		mu.Lock()
		reporter := active.Filter(capture)
		mu.Unlock()
		fault.Dispatch(reporter, rec)
	}

	dispatch(fault.New(fault.KindConflict, "write clash"))
	if len(capture.records) != 1 {
		t.Fatalf("first dispatch delivered %d records, want 1", len(capture.records))
	}

	updated := policy.Default()
	updated.Kinds = map[string]policy.Rule{"Conflict": {Mute: true}}
	if err := policy.Save(updated, path); err != nil {
		t.Fatalf("failed to update policy: %v", err)
	}

	select {
	case <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}

	dispatch(fault.New(fault.KindConflict, "write clash"))
	if len(capture.records) != 1 {
		t.Fatalf("muted kind still delivered after reload: %d records", len(capture.records))
	}
	t.Log("Reload swapped the filter; muted kind silenced without restart")
}

// TestEnvelopeRoundTripAcrossProcesses simulates shipping a failure
// chain to another process: encode, decode, and verify the
// reconstructed chain classifies and renders the same.
func TestEnvelopeRoundTripAcrossProcesses(t *testing.T) {
	skipIfShort(t)

	original := fault.Wrap(fault.KindResourceUnavailable, "dial inventory service",
		fault.Wrap(fault.KindTimeout, "fetch stalled", context.DeadlineExceeded)).
		WithContext("host", "inventory:7011")

	data, err := fault.Encode(original)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	envelope, err := fault.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	restored := fault.From(envelope.Err())

	if restored.Kind() != fault.KindResourceUnavailable {
		t.Fatalf("expected ResourceUnavailable, got %v", restored.Kind())
	}
	if restored.Message() != original.Message() {
		t.Fatalf("message mismatch: %q vs %q", restored.Message(), original.Message())
	}
	if restored.Context()["host"] != "inventory:7011" {
		t.Fatalf("context lost in transit: %v", restored.Context())
	}
	if !fault.IsTransient(restored) {
		t.Fatal("transience lost in transit")
	}
	if fault.DebugString(restored) == "" {
		t.Fatal("restored chain should render")
	}
	t.Log("Envelope round-trip preserved kind, context, and transience")
}

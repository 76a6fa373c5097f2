package retry

import (
	"context"
	"errors"
	"testing"

	"faultline/pkg/fault"
)

func TestDo(t *testing.T) {
	t.Run("transient failure retried until success", func(t *testing.T) {
		attempts := 0
		err := Do(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return fault.New(fault.KindResourceUnavailable, "store busy")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() = %v, want nil", err)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("non-transient failure stops immediately", func(t *testing.T) {
		attempts := 0
		want := fault.New(fault.KindMalformedInput, "bad age: -1")
		err := Do(context.Background(), func() error {
			attempts++
			return want
		})
		if !errors.Is(err, want) {
			t.Fatalf("Do() = %v, want %v", err, want)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("foreign errors are not retried", func(t *testing.T) {
		attempts := 0
		want := errors.New("boom")
		err := Do(context.Background(), func() error {
			attempts++
			return want
		})
		if !errors.Is(err, want) {
			t.Fatalf("Do() = %v, want %v", err, want)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("cancelled context stops the schedule", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		attempts := 0
		err := Do(ctx, func() error {
			attempts++
			return fault.New(fault.KindTimeout, "deadline exceeded")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Do() = %v, want context.Canceled", err)
		}
		if !fault.IsCancelled(err) {
			t.Errorf("IsCancelled(err) = false, want true")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})
}

func TestDoValue(t *testing.T) {
	t.Run("returns value on eventual success", func(t *testing.T) {
		attempts := 0
		got, err := DoValue(context.Background(), func() (int, error) {
			attempts++
			if attempts < 2 {
				return 0, fault.New(fault.KindConflict, "version mismatch")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("DoValue() err = %v, want nil", err)
		}
		if got != 42 {
			t.Errorf("DoValue() = %d, want 42", got)
		}
	})

	t.Run("zero value on failure", func(t *testing.T) {
		got, err := DoValue(context.Background(), func() (string, error) {
			return "partial", fault.New(fault.KindMalformedInput, "bad input")
		})
		if err == nil {
			t.Fatal("DoValue() err = nil, want error")
		}
		if got != "" {
			t.Errorf("DoValue() = %q, want empty", got)
		}
	})
}

package fault

import (
	"errors"
	"testing"
)

func TestChain_Flatten(t *testing.T) {
	t.Run("single record", func(t *testing.T) {
		rec := New(KindIO, "read failed")
		chain := Chain(rec)
		if len(chain) != 1 {
			t.Fatalf("Chain length = %d, want 1", len(chain))
		}
		if chain[0] != rec {
			t.Errorf("Chain[0] = %v, want %v", chain[0], rec)
		}
	})
	t.Run("record with foreign cause", func(t *testing.T) {
		cause := errors.New("disk offline")
		rec := Wrap(KindIO, "read failed", cause)
		chain := Chain(rec)
		if len(chain) != 2 {
			t.Fatalf("Chain length = %d, want 2", len(chain))
		}
		if chain[0] != rec || chain[1] != cause {
			t.Errorf("Chain = %v, want [rec, cause]", chain)
		}
	})
	t.Run("three-deep record chain", func(t *testing.T) {
		root := New(KindMalformedInput, "bad age: -1")
		mid := Wrap(KindIO, "parse failed", root)
		top := Wrap(KindInternal, "request failed", mid)
		chain := Chain(top)
		if len(chain) != 3 {
			t.Fatalf("Chain length = %d, want 3", len(chain))
		}
		if chain[0] != top || chain[1] != mid || chain[2] != root {
			t.Errorf("Chain = %v, want [top, mid, root]", chain)
		}
	})
	t.Run("multi-error links are followed", func(t *testing.T) {
		err1 := errors.New("first")
		err2 := errors.New("second")
		joined := errors.Join(err1, err2)
		chain := Chain(joined)
		if len(chain) != 3 {
			t.Fatalf("Chain length = %d, want 3", len(chain))
		}
		if chain[1] != err1 || chain[2] != err2 {
			t.Errorf("Chain = %v, want joined then both members", chain)
		}
	})
	t.Run("nil", func(t *testing.T) {
		if Chain(nil) != nil {
			t.Errorf("Chain(nil) = %v, want nil", Chain(nil))
		}
	})
	t.Run("self-unwrapping error stops at the cap", func(t *testing.T) {
		loop := &selfWrapping{}
		chain := Chain(loop)
		if len(chain) != maxChain {
			t.Errorf("Chain length = %d, want cap %d", len(chain), maxChain)
		}
	})
}

type selfWrapping struct{}

func (s *selfWrapping) Error() string { return "loop" }
func (s *selfWrapping) Unwrap() error { return s }

func TestChain_Root(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Root(nil) != nil {
			t.Errorf("Root(nil) = %v, want nil", Root(nil))
		}
	})
	t.Run("no cause", func(t *testing.T) {
		rec := New(KindIO, "read failed")
		if Root(rec) != rec {
			t.Errorf("Root = %v, want the record itself", Root(rec))
		}
	})
	t.Run("terminates at the original", func(t *testing.T) {
		original := New(KindMalformedInput, "bad age: -1")
		wrapped := Wrap(KindInternal, "validation crashed", Wrap(KindIO, "read failed", original))
		if Root(wrapped) != original {
			t.Errorf("Root = %v, want %v", Root(wrapped), original)
		}
	})
}

func TestChain_Attach(t *testing.T) {
	t.Run("nil err yields tail", func(t *testing.T) {
		tail := New(KindIO, "read failed")
		if attach(nil, tail) != tail {
			t.Errorf("attach(nil, tail) = %v, want tail", attach(nil, tail))
		}
	})
	t.Run("nil tail yields err", func(t *testing.T) {
		err := New(KindIO, "read failed")
		if attach(err, nil) != err {
			t.Errorf("attach(err, nil) = %v, want err", attach(err, nil))
		}
	})
	t.Run("already chained passes through", func(t *testing.T) {
		original := New(KindMalformedInput, "bad age: -1")
		wrapped := Wrap(KindIO, "read failed", original)
		if attach(wrapped, original) != wrapped {
			t.Error("attach rewrapped an error that already chains the tail")
		}
	})
	t.Run("record without cause gains the tail", func(t *testing.T) {
		original := New(KindMalformedInput, "bad age: -1")
		release := New(KindIO, "close failed")
		got := attach(release, original)

		rec, ok := got.(*Record)
		if !ok {
			t.Fatalf("attach returned %T, want *Record", got)
		}
		if rec.Kind() != KindIO || rec.Message() != "close failed" {
			t.Errorf("attached record = %v, want the release failure on top", rec)
		}
		if rec.Cause() != original {
			t.Errorf("Cause() = %v, want the original", rec.Cause())
		}
		// attach clones; the input record stays causeless
		if release.Cause() != nil {
			t.Error("attach mutated its input record")
		}
	})
	t.Run("tail lands at the end of an existing chain", func(t *testing.T) {
		original := New(KindMalformedInput, "bad age: -1")
		inner := New(KindIO, "flush failed")
		release := Wrap(KindIO, "close failed", inner)
		got := attach(release, original)

		chain := Chain(got)
		if len(chain) != 3 {
			t.Fatalf("Chain length = %d, want 3", len(chain))
		}
		if Root(got) != original {
			t.Errorf("Root = %v, want the original", Root(got))
		}
		if !errors.Is(got, original) || !errors.Is(got, inner) {
			t.Error("attach dropped a link from the combined chain")
		}
	})
	t.Run("foreign err is adopted and stays matchable", func(t *testing.T) {
		original := New(KindMalformedInput, "bad age: -1")
		closeErr := errors.New("close /tmp/f: file already closed")
		got := attach(closeErr, original)

		rec, ok := got.(*Record)
		if !ok {
			t.Fatalf("attach returned %T, want *Record", got)
		}
		if rec.Message() != closeErr.Error() {
			t.Errorf("Message() = %q, want %q", rec.Message(), closeErr.Error())
		}
		if !errors.Is(got, closeErr) {
			t.Error("errors.Is(got, closeErr) = false, want true via base")
		}
		if !errors.Is(got, original) {
			t.Error("errors.Is(got, original) = false, want true via cause")
		}
	})
}

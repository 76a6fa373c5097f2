package fault

import "errors"

// maxChain caps chain traversal. Chains are acyclic by construction,
// but a foreign error with a misbehaving Unwrap could still loop.
const maxChain = 64

// Chain returns the flattened cause chain starting at err, outermost
// first. Both single-cause and multi-cause (Unwrap() []error) links are
// followed.
func Chain(err error) []error {
	if err == nil {
		return nil
	}
	var out []error
	queue := []error{err}
	for len(queue) > 0 && len(out) < maxChain {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		out = append(out, current)
		queue = append(queue, unwrapAll(current)...)
	}
	return out
}

// Root returns the deepest error in err's cause chain: the original
// failure the rest of the chain wraps.
func Root(err error) error {
	if err == nil {
		return nil
	}
	current := err
	for i := 0; i < maxChain; i++ {
		next := errors.Unwrap(current)
		if next == nil {
			return current
		}
		current = next
	}
	return current
}

func unwrapAll(err error) []error {
	switch unwrapped := err.(type) {
	case interface{ Unwrap() []error }:
		return unwrapped.Unwrap()
	case interface{ Unwrap() error }:
		if next := unwrapped.Unwrap(); next != nil {
			return []error{next}
		}
	}
	return nil
}

// attach returns err with tail linked at the end of its cause chain,
// preserving every link in between. If err already chains tail, err is
// returned unchanged. Record links are rebuilt as clones; a foreign
// link is adopted with the foreign error kept as its base so that
// errors.Is against it keeps working.
func attach(err, tail error) error {
	if err == nil {
		return tail
	}
	if tail == nil || errors.Is(err, tail) {
		return err
	}
	return rebase(err, tail, 0)
}

func rebase(err, tail error, depth int) error {
	if depth >= maxChain {
		return tail
	}
	rec, ok := err.(*Record)
	if !ok {
		return &Record{kind: adoptKind(err), message: err.Error(), base: err, cause: tail}
	}
	clone := rec.clone()
	if rec.cause == nil {
		clone.cause = tail
		return clone
	}
	clone.cause = rebase(rec.cause, tail, depth+1)
	return clone
}

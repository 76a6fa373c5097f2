package fault

// WithResource runs body with a scoped resource. The resource is
// acquired before body starts and released exactly once on every exit
// path: normal return, failure, cancellation, even a panic inside body.
// Release runs before any enclosing handler observes the failure, and
// nested scopes release in reverse order of acquisition.
//
// If body fails and release then fails too, the release failure is
// what propagates, with the body failure attached as its cause so the
// full forensic chain survives. A release failure after a successful
// body propagates on its own.
//
// An acquisition failure propagates as-is; there is nothing to release.
func WithResource[R, T any](acquire func() (R, error), release func(R) error, body func(R) (T, error)) (result T, err error) {
	resource, err := acquire()
	if err != nil {
		return result, err
	}
	defer func() {
		if release == nil {
			return
		}
		relErr := release(resource)
		if relErr == nil {
			return
		}
		var zero T
		result = zero
		if err == nil {
			err = From(relErr)
			return
		}
		err = attach(relErr, err)
	}()
	result, err = body(resource)
	if err != nil {
		var zero T
		result = zero
	}
	return result, err
}

// Use is WithResource for bodies that produce no value.
func Use[R any](acquire func() (R, error), release func(R) error, body func(R) error) error {
	_, err := WithResource(acquire, release, func(resource R) (struct{}, error) {
		return struct{}{}, body(resource)
	})
	return err
}

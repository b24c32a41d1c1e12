package service

import "github.com/cockroachdb/errors"

// StateError records the state a run was in when it failed.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return e.Err.Error()
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func newStateError(state string, err error) error {
	return &StateError{State: state, Err: err}
}

// FailedState returns the state recorded in err, or "" when err did not come
// from a service run.
func FailedState(err error) string {
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return stateErr.State
	}
	return ""
}

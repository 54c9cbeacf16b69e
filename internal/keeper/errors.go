package keeper

import (
	"errors"
	"fmt"
)

// Phase names a lifecycle transition in errors and events.
type Phase string

const (
	PhaseConstruct  Phase = "construct"
	PhaseInitialize Phase = "initialize"
	PhaseUnload     Phase = "unload"
)

// ErrReentrantTransition rejects a phase call on a record that is already
// inside a transition. Queueing the second call silently would hide the
// misuse.
var ErrReentrantTransition = errors.New("record is already inside a lifecycle transition")

// ErrDependencyFailed marks errors derived from a dependency that had
// already failed. The driver treats them as symptoms when picking a root
// cause.
var ErrDependencyFailed = errors.New("dependency is in failure state")

// StateError reports a phase call against a record in the wrong state. A
// completed transition is never silently repeated.
type StateError struct {
	Module string
	Op     Phase
	State  State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("module %s: cannot %s while %s", e.Module, e.Op, e.State)
}

// LifecycleError wraps a module hook failure. The record carrying it has
// moved to StateFailure; the error propagates up the dependency chain so
// dependents abort their own transitions.
type LifecycleError struct {
	Module string
	Phase  Phase
	Err    error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("module %s: %s failed: %v", e.Module, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }

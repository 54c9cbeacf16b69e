package keeper

// State is the lifecycle state of a record. Transitions run forward along
// the chain only; Unloaded additionally permits re-construction, starting
// the chain over.
type State int32

const (
	// StatePrototype is the initial state: linked, nothing loaded.
	StatePrototype State = iota
	// StateConstructing marks an in-flight construct transition.
	StateConstructing
	// StateConstructed means the instance exists but init has not run.
	StateConstructed
	// StateInitializing marks an in-flight initialize transition.
	StateInitializing
	// StateInitialized is the regular operating state.
	StateInitialized
	// StateUnloading marks an in-flight unload transition.
	StateUnloading
	// StateUnloaded means the instance was released. The record stays linked
	// and may be constructed again.
	StateUnloaded
	// StateFailure is terminal for the record until an external reset.
	StateFailure
)

func (s State) String() string {
	switch s {
	case StatePrototype:
		return "prototype"
	case StateConstructing:
		return "constructing"
	case StateConstructed:
		return "constructed"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateUnloading:
		return "unloading"
	case StateUnloaded:
		return "unloaded"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Package keeper holds the per-module lifecycle record and the contracts
// shared between the runtime and module code.
//
// A Keeper wraps exactly one descriptor and drives its module instance
// through the state chain Prototype → Constructing → Constructed →
// Initializing → Initialized → Unloading → Unloaded, with Failure reachable
// from the constructing and initializing transitions. Phase methods check
// the current state explicitly and refuse wrong-state and re-entrant calls;
// recursion into dependencies (for construct/initialize) and dependents (for
// unload) happens depth-first, so an edge target is always fully settled
// before the edge source proceeds.
//
// The package also defines the module author contract (Module,
// Initializable, PrivateReceiver), the CodeLoader abstraction that decouples
// the runtime from how entry code is located and instantiated, and the two
// capability interfaces handed to module code (Private for the module's own
// record, Public for records it is linked to).
package keeper

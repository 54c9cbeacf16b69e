package keeper

// Private is the capability interface a module receives for its own record.
// It is never handed to other modules.
type Private interface {
	// Name returns the module's registered name.
	Name() string

	// BaseCheck reports whether m is the exact instance this interface was
	// issued for. Module code asserts it before trusting a Private value it
	// was handed, which defeats spoofed interface passing.
	BaseCheck(m Module) bool

	// Dependency returns the public interface of the resolved dependency
	// registered under name.
	Dependency(name string) (Public, bool)

	// Dependent returns the public interface of a module depending on this
	// one, looked up by name.
	Dependent(name string) (Public, bool)

	// ConfigPath returns the deterministic path of this module's own
	// configuration file under the host's configuration root.
	ConfigPath() string

	// LoadConfig decodes the module's configuration file into v.
	LoadConfig(v any) error

	// PendingInitialization reports whether the record is inside an
	// initialize transition right now. Module init logic must assert it
	// before performing initialization side effects, so an init hook called
	// outside a real transition turns into an error instead of silent misuse.
	PendingInitialization() bool

	// PendingUnload is the unload-side counterpart of
	// PendingInitialization.
	PendingUnload() bool
}

// Public is the read-only view of a record handed to other modules.
type Public interface {
	// Name returns the module's registered name.
	Name() string

	// State returns the record's current lifecycle state.
	State() State

	// Instance returns the loaded module instance, or nil while none is
	// loaded.
	Instance() Module

	// OnConstructed registers fn to run once when the record reaches
	// Constructed. If construction already happened, fn runs immediately.
	// Either way fn runs at most once.
	OnConstructed(fn func(Public))

	// OnInitialized is OnConstructed for the Initialized phase.
	OnInitialized(fn func(Public))
}

package keeper

import "context"

// Module is the mandatory contract every module instance fulfills. Unload is
// required up front so that teardown is always callable later; a constructor
// returning an instance without it is rejected at construction time. The
// returned bool reports whether the module actually released its resources;
// false leaves the record in its prior state for a later retry.
type Module interface {
	Unload(ctx context.Context, priv Private, reason string) (bool, error)
}

// Initializable is the optional init hook, invoked once between construction
// and regular operation.
type Initializable interface {
	Init(ctx context.Context, priv Private) error
}

// PrivateReceiver is the optional hook for modules that keep their private
// interface. It is called immediately after construction.
type PrivateReceiver interface {
	SupplyPrivateInterface(priv Private)
}

// Constructor instantiates a module. Returned by a CodeLoader once the entry
// symbol is verified.
type Constructor func() (Module, error)

// CodeLoader resolves a module's entry file and symbol into a Constructor.
// Implementations decide how code is located and instantiated: a compiled-in
// registry, an embedded script engine, or anything else. The runtime core
// never assumes a strategy.
type CodeLoader interface {
	Load(entryPath string, symbol string) (Constructor, error)
}

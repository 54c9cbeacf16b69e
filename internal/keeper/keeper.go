package keeper

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/descriptor"
)

// DependentReasonPrefix derives the reason handed to a dependent's unload
// from the reason of the unload that triggered it.
const DependentReasonPrefix = "dependent_"

// Keeper is the lifecycle record of one module version. It owns the module
// instance, the authoritative state tag, and the resolved dependency and
// dependent edges. Keepers are created by the linker and live in the
// loader's arena until the runtime tears down; unloading clears the instance
// but keeps the record linked.
type Keeper struct {
	desc   *descriptor.Descriptor
	loader CodeLoader

	// state is the single authoritative lifecycle tag.
	state atomic.Int32
	// transitioning rejects re-entrant phase calls on this record.
	transitioning atomic.Bool
	// pendingInit and pendingUnload are the transient flags module code
	// asserts through its Private interface during the matching hook.
	pendingInit   atomic.Bool
	pendingUnload atomic.Bool

	// mu guards the fields below.
	mu            sync.Mutex
	instance      Module
	failure       error
	onConstructed []func(Public)
	onInitialized []func(Public)

	// deps maps dependency name to the resolved record; depNames keeps the
	// deterministic recursion order.
	deps     map[string]*Keeper
	depNames []string
	// dependents are back-references used for unload ordering and lookups,
	// never for ownership.
	dependents []*Keeper

	// priv and pub are this record's capability handles, bound by the
	// loader right after linking.
	priv Private
	pub  Public
}

// New wraps desc in a fresh record in StatePrototype. The code loader is
// injected here so construct never has to know how entry code is located.
func New(desc *descriptor.Descriptor, loader CodeLoader) *Keeper {
	return &Keeper{
		desc:   desc,
		loader: loader,
		deps:   make(map[string]*Keeper),
	}
}

// Descriptor returns the immutable descriptor this record wraps.
func (k *Keeper) Descriptor() *descriptor.Descriptor { return k.desc }

// Name returns the module name.
func (k *Keeper) Name() string { return k.desc.Name() }

// ID returns the name@version form identifying this record.
func (k *Keeper) ID() string { return k.desc.ID() }

// State returns the current lifecycle state.
func (k *Keeper) State() State { return State(k.state.Load()) }

func (k *Keeper) setState(s State) { k.state.Store(int32(s)) }

// Instance returns the loaded module instance, or nil while none is loaded.
func (k *Keeper) Instance() Module {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.instance
}

// FailureCause returns the error that moved the record to StateFailure.
func (k *Keeper) FailureCause() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.failure
}

// PendingInitialization reports an in-flight initialize transition.
func (k *Keeper) PendingInitialization() bool { return k.pendingInit.Load() }

// PendingUnload reports an in-flight unload transition.
func (k *Keeper) PendingUnload() bool { return k.pendingUnload.Load() }

// AddDependency wires dep as a resolved requirement of this record and adds
// the matching back-reference. Called by the linker only.
func (k *Keeper) AddDependency(dep *Keeper) {
	if _, exists := k.deps[dep.Name()]; exists {
		return
	}
	k.deps[dep.Name()] = dep
	k.depNames = append(k.depNames, dep.Name())
	slices.Sort(k.depNames)
	dep.dependents = append(dep.dependents, k)
}

// Dependency returns the resolved dependency registered under name.
func (k *Keeper) Dependency(name string) (*Keeper, bool) {
	dep, ok := k.deps[name]
	return dep, ok
}

// DependencyNames returns the names of all resolved dependencies in
// recursion order.
func (k *Keeper) DependencyNames() []string { return slices.Clone(k.depNames) }

// Dependents returns the records depending on this one, in link order.
func (k *Keeper) Dependents() []*Keeper { return slices.Clone(k.dependents) }

// DependentByName returns the first linked dependent with the given name.
func (k *Keeper) DependentByName(name string) (*Keeper, bool) {
	for _, d := range k.dependents {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// BindInterfaces attaches the record's capability handles. The loader calls
// it once after the arena is assembled, before any phase runs.
func (k *Keeper) BindInterfaces(priv Private, pub Public) {
	k.priv = priv
	k.pub = pub
}

// Public returns the record's public capability handle.
func (k *Keeper) Public() Public { return k.pub }

// Construct loads the entry code and instantiates the module.
//
// It requires StatePrototype or StateUnloaded. Dependencies are settled
// first, depth-first; if one of them fails the error propagates and this
// record stays in its pre-call state. Failures of this record's own loading
// or constructor move it to StateFailure and return a *LifecycleError.
func (k *Keeper) Construct(ctx context.Context) error {
	if !k.transitioning.CompareAndSwap(false, true) {
		return fmt.Errorf("module %s: construct: %w", k.ID(), ErrReentrantTransition)
	}
	defer k.transitioning.Store(false)

	if s := k.State(); s != StatePrototype && s != StateUnloaded {
		return &StateError{Module: k.ID(), Op: PhaseConstruct, State: s}
	}

	logger := ctxlog.FromContext(ctx)

	for _, name := range k.depNames {
		if err := k.deps[name].ensureConstructed(ctx); err != nil {
			return fmt.Errorf("module %s: dependency %s: %w", k.ID(), name, err)
		}
	}

	k.setState(StateConstructing)
	logger.Debug("Constructing module.", "module", k.ID())

	ctor, err := k.loader.Load(k.desc.EntryPath(), k.desc.EntrySymbol())
	if err != nil {
		return k.fail(PhaseConstruct, fmt.Errorf("loading entry code: %w", err))
	}

	var instance Module
	err = invokeHook(func() error {
		var hookErr error
		instance, hookErr = ctor()
		return hookErr
	})
	if err != nil {
		return k.fail(PhaseConstruct, err)
	}
	if instance == nil {
		return k.fail(PhaseConstruct, fmt.Errorf("constructor %q produced no module", k.desc.EntrySymbol()))
	}

	k.mu.Lock()
	k.instance = instance
	k.mu.Unlock()

	if receiver, ok := instance.(PrivateReceiver); ok {
		if err := invokeHook(func() error {
			receiver.SupplyPrivateInterface(k.priv)
			return nil
		}); err != nil {
			return k.fail(PhaseConstruct, err)
		}
	}

	k.setState(StateConstructed)
	logger.Debug("Module constructed.", "module", k.ID())
	k.fire(&k.onConstructed)
	return nil
}

// Initialize runs the module's optional init hook.
//
// It requires StateConstructed. Dependencies are brought to Initialized
// first, constructing any still in Prototype. The pending-initialization
// flag is visible to the hook for the duration of the call.
func (k *Keeper) Initialize(ctx context.Context) error {
	if !k.transitioning.CompareAndSwap(false, true) {
		return fmt.Errorf("module %s: initialize: %w", k.ID(), ErrReentrantTransition)
	}
	defer k.transitioning.Store(false)

	if s := k.State(); s != StateConstructed {
		return &StateError{Module: k.ID(), Op: PhaseInitialize, State: s}
	}

	logger := ctxlog.FromContext(ctx)

	for _, name := range k.depNames {
		if err := k.deps[name].ensureInitialized(ctx); err != nil {
			return fmt.Errorf("module %s: dependency %s: %w", k.ID(), name, err)
		}
	}

	k.setState(StateInitializing)
	logger.Debug("Initializing module.", "module", k.ID())

	if init, ok := k.Instance().(Initializable); ok {
		k.pendingInit.Store(true)
		err := invokeHook(func() error { return init.Init(ctx, k.priv) })
		k.pendingInit.Store(false)
		if err != nil {
			return k.fail(PhaseInitialize, err)
		}
	}

	k.setState(StateInitialized)
	logger.Debug("Module initialized.", "module", k.ID())
	k.fire(&k.onInitialized)
	return nil
}

// Unload tears the module down.
//
// It requires StateConstructed or StateInitialized. Every dependent still
// holding a constructed instance is unloaded first with a
// DependentReasonPrefix-derived reason, so nothing depends on a module while
// it disappears; a dependent's failure is logged and does not stop the
// chain. The record's own hook failure (error or a false result) leaves the
// record in its pre-call state so a later sweep can retry, and is reported
// to the caller as a non-fatal error.
func (k *Keeper) Unload(ctx context.Context, reason string) error {
	if !k.transitioning.CompareAndSwap(false, true) {
		return fmt.Errorf("module %s: unload: %w", k.ID(), ErrReentrantTransition)
	}
	defer k.transitioning.Store(false)

	prior := k.State()
	if prior != StateConstructed && prior != StateInitialized {
		return &StateError{Module: k.ID(), Op: PhaseUnload, State: prior}
	}

	logger := ctxlog.FromContext(ctx)

	for _, dependent := range k.dependents {
		if s := dependent.State(); s != StateConstructed && s != StateInitialized {
			continue
		}
		if err := dependent.Unload(ctx, DependentReasonPrefix+reason); err != nil {
			logger.Warn("Dependent unload failed, continuing.",
				"module", k.ID(), "dependent", dependent.ID(), "error", err)
		}
	}

	k.setState(StateUnloading)
	logger.Debug("Unloading module.", "module", k.ID(), "reason", reason)

	instance := k.Instance()
	k.pendingUnload.Store(true)
	defer k.pendingUnload.Store(false)

	var released bool
	err := invokeHook(func() error {
		var hookErr error
		released, hookErr = instance.Unload(ctx, k.priv, reason)
		return hookErr
	})
	if err != nil {
		k.setState(prior)
		return fmt.Errorf("module %s: unload: %w", k.ID(), err)
	}
	if !released {
		k.setState(prior)
		return fmt.Errorf("module %s: unload hook declined to release", k.ID())
	}

	k.mu.Lock()
	k.instance = nil
	k.mu.Unlock()
	k.setState(StateUnloaded)
	logger.Debug("Module unloaded.", "module", k.ID(), "reason", reason)
	return nil
}

// ensureConstructed settles a dependency for a dependent's construct.
func (k *Keeper) ensureConstructed(ctx context.Context) error {
	switch k.State() {
	case StateConstructed, StateInitializing, StateInitialized:
		return nil
	case StatePrototype, StateUnloaded:
		return k.Construct(ctx)
	case StateFailure:
		return fmt.Errorf("%w: %v", ErrDependencyFailed, k.FailureCause())
	default:
		return &StateError{Module: k.ID(), Op: PhaseConstruct, State: k.State()}
	}
}

// ensureInitialized settles a dependency for a dependent's initialize.
func (k *Keeper) ensureInitialized(ctx context.Context) error {
	switch k.State() {
	case StateInitialized:
		return nil
	case StatePrototype, StateUnloaded:
		if err := k.Construct(ctx); err != nil {
			return err
		}
		return k.Initialize(ctx)
	case StateConstructed:
		return k.Initialize(ctx)
	case StateFailure:
		return fmt.Errorf("%w: %v", ErrDependencyFailed, k.FailureCause())
	default:
		return &StateError{Module: k.ID(), Op: PhaseInitialize, State: k.State()}
	}
}

// OnConstructed registers fn to run once when the record reaches
// Constructed, or immediately when the instance is already live.
func (k *Keeper) OnConstructed(fn func(Public)) {
	k.subscribe(&k.onConstructed, fn, StateConstructed)
}

// OnInitialized registers fn to run once when the record reaches
// Initialized, or immediately when initialization already happened.
func (k *Keeper) OnInitialized(fn func(Public)) {
	k.subscribe(&k.onInitialized, fn, StateInitialized)
}

// subscribe implements the one-shot semantics shared by OnConstructed and
// OnInitialized. The phase counts as reached while the state lies between
// the target and Unloading; past Unloaded the next lifecycle round fires the
// listener.
func (k *Keeper) subscribe(list *[]func(Public), fn func(Public), target State) {
	k.mu.Lock()
	s := k.State()
	if s >= target && s <= StateUnloading {
		k.mu.Unlock()
		fn(k.pub)
		return
	}
	*list = append(*list, fn)
	k.mu.Unlock()
}

// fire consumes and runs the given listener list.
func (k *Keeper) fire(list *[]func(Public)) {
	k.mu.Lock()
	fns := *list
	*list = nil
	k.mu.Unlock()
	for _, fn := range fns {
		fn(k.pub)
	}
}

// fail moves the record to StateFailure, remembers the cause, and returns
// the wrapped error for propagation up the dependency chain.
func (k *Keeper) fail(phase Phase, cause error) error {
	err := &LifecycleError{Module: k.ID(), Phase: phase, Err: cause}
	k.mu.Lock()
	k.failure = err
	k.mu.Unlock()
	k.setState(StateFailure)
	return err
}

// invokeHook calls into module code, converting a panic into an error so a
// misbehaving module cannot take the runtime down with it.
func invokeHook(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return f()
}

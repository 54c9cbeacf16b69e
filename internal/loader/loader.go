package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/discovery"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/linker"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/registry"
)

// ErrBusy rejects a bulk operation issued while another one is in flight.
// Transitions are strictly serialized; queueing a competing bulk call would
// hide the misuse.
var ErrBusy = errors.New("loader: another lifecycle operation is in progress")

// Options configures a Loader.
type Options struct {
	// Discovery selects the manifest roots to walk on every rebuild.
	Discovery discovery.Options
	// ConfigRoot is the directory holding per-module configuration files.
	ConfigRoot string
	// CodeLoader locates and instantiates module entry code.
	CodeLoader keeper.CodeLoader
}

// Loader drives the module lifecycle. See the package comment for the
// operation model.
type Loader struct {
	opts Options

	// run serializes bulk operations.
	run sync.Mutex
	// current is the active record arena, swapped atomically on rebuild so
	// observers (status endpoints) read it without taking the run mutex.
	current atomic.Pointer[arena]

	listenersMu sync.Mutex
	listeners   []func(Event)
}

// New creates a Loader. A missing code loader is a wiring bug, not a runtime
// condition.
func New(opts Options) *Loader {
	if opts.CodeLoader == nil {
		panic("loader: code loader is required")
	}
	return &Loader{opts: opts}
}

// Subscribe registers fn for lifecycle events. Listeners run synchronously
// on the driver goroutine and must not invoke bulk operations.
func (l *Loader) Subscribe(fn func(Event)) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Loader) emit(ev Event) {
	l.listenersMu.Lock()
	fns := make([]func(Event), len(l.listeners))
	copy(fns, l.listeners)
	l.listenersMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// RebuildRegistry runs discovery, registry build, and linking, then swaps in
// the resulting arena. On any error the previous arena stays active
// untouched; a partially linked graph is never used.
func (l *Loader) RebuildRegistry(ctx context.Context) error {
	if !l.run.TryLock() {
		return ErrBusy
	}
	defer l.run.Unlock()

	logger := ctxlog.FromContext(ctx)
	prev := l.current.Load()
	prevCount := 0
	if prev != nil {
		prevCount = len(prev.keepers)
		for _, k := range prev.keepers {
			if s := k.State(); s >= keeper.StateConstructed && s <= keeper.StateUnloading {
				logger.Warn("Rebuilding registry while records remain loaded.",
					"module", k.ID(), "state", s.String())
				break
			}
		}
	}
	l.emit(Event{Name: EventRebuildBefore, Count: prevCount})

	descs, err := discovery.Discover(ctx, l.opts.Discovery)
	if err != nil {
		return fmt.Errorf("rebuilding registry: %w", err)
	}
	reg := registry.Build(ctx, descs)
	keepers, err := linker.Link(ctx, reg, l.opts.CodeLoader)
	if err != nil {
		return fmt.Errorf("rebuilding registry: %w", err)
	}

	next := newArena(keepers)
	next.bind(l.opts.ConfigRoot)
	l.current.Store(next)

	logger.Info("Registry rebuilt.", "record_count", len(keepers))
	l.emit(Event{Name: EventRebuildAfter, Count: len(keepers)})
	return nil
}

// Record returns the record registered under the exact name@version id.
func (l *Loader) Record(id string) (*keeper.Keeper, bool) {
	a := l.current.Load()
	if a == nil {
		return nil, false
	}
	idx, ok := a.byID[id]
	if !ok {
		return nil, false
	}
	return a.keepers[idx], true
}

// Records returns the current arena's records in deterministic order.
func (l *Loader) Records() []*keeper.Keeper {
	a := l.current.Load()
	if a == nil {
		return nil
	}
	out := make([]*keeper.Keeper, len(a.keepers))
	copy(out, a.keepers)
	return out
}

// RecordStatus is a point-in-time view of one record, shaped for status
// endpoints.
type RecordStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	State   string `json:"state"`
	Origin  string `json:"origin"`
}

// Snapshot reports every record's current state. Safe to call from any
// goroutine.
func (l *Loader) Snapshot() []RecordStatus {
	a := l.current.Load()
	if a == nil {
		return nil
	}
	out := make([]RecordStatus, 0, len(a.keepers))
	for _, k := range a.keepers {
		out = append(out, RecordStatus{
			Name:    k.Name(),
			Version: k.Descriptor().Version().String(),
			State:   k.State().String(),
			Origin:  k.Descriptor().Origin().String(),
		})
	}
	return out
}

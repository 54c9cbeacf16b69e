package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
)

// ConstructAll constructs every record still in Prototype or Unloaded, in
// arena order. Recursion inside the records settles dependencies first, so a
// record the sweep reaches later may already be constructed and is skipped.
//
// A failing record does not stop the sweep; independent subgraphs still get
// constructed. After the sweep the first root-cause error is returned,
// errors merely derived from an already-failed dependency are reported as
// context, not as the cause.
func (l *Loader) ConstructAll(ctx context.Context) error {
	return l.settlePhase(ctx, settleSpec{
		before:  EventConstructBefore,
		after:   EventConstructAfter,
		failure: EventConstructFailure,
		verb:    "construction",
		logDone: "Construct phase complete.",
		eligible: func(s keeper.State) bool {
			return s == keeper.StatePrototype || s == keeper.StateUnloaded
		},
		completed: func(s keeper.State) bool {
			return s >= keeper.StateConstructed && s <= keeper.StateInitialized
		},
		transition: func(k *keeper.Keeper) error { return k.Construct(ctx) },
	})
}

// InitAll initializes every constructed record in arena order. Dependencies
// reach Initialized before their dependents, via record recursion.
func (l *Loader) InitAll(ctx context.Context) error {
	return l.settlePhase(ctx, settleSpec{
		before:  EventInitBefore,
		after:   EventInitAfter,
		failure: EventInitFailure,
		verb:    "initialization",
		logDone: "Init phase complete.",
		eligible: func(s keeper.State) bool {
			return s == keeper.StateConstructed
		},
		completed: func(s keeper.State) bool {
			return s == keeper.StateInitialized
		},
		transition: func(k *keeper.Keeper) error { return k.Initialize(ctx) },
	})
}

// settleSpec parameterizes the shared construct/init sweep. The completed
// predicate measures progress by state, which also counts records settled
// through a dependent's recursion rather than by the sweep's direct call.
type settleSpec struct {
	before, after string
	failure       string
	verb          string
	logDone       string
	eligible      func(keeper.State) bool
	completed     func(keeper.State) bool
	transition    func(*keeper.Keeper) error
}

func (l *Loader) settlePhase(ctx context.Context, spec settleSpec) error {
	if !l.run.TryLock() {
		return ErrBusy
	}
	defer l.run.Unlock()

	logger := ctxlog.FromContext(ctx)
	a := l.current.Load()
	if a == nil {
		l.emit(Event{Name: spec.before, Count: 0})
		l.emit(Event{Name: spec.after, Count: 0})
		return nil
	}

	l.emit(Event{Name: spec.before, Count: countStates(a, spec.eligible)})
	completedBefore := countStates(a, spec.completed)

	var failed []string
	var firstErr, rootCause error
	for _, k := range a.keepers {
		if !spec.eligible(k.State()) {
			continue
		}
		if err := spec.transition(k); err != nil {
			logger.Error("Module transition failed.", "module", k.ID(), "error", err)
			l.emit(Event{Name: spec.failure, Module: k.ID(), Err: err})
			failed = append(failed, k.ID())
			if firstErr == nil {
				firstErr = err
			}
			// An error derived from an already-failed dependency is a
			// symptom; prefer the first real cause.
			if rootCause == nil && !errors.Is(err, keeper.ErrDependencyFailed) {
				rootCause = err
			}
		}
	}

	succeeded := countStates(a, spec.completed) - completedBefore
	logger.Info(spec.logDone, "succeeded", succeeded, "failed", len(failed))
	l.emit(Event{Name: spec.after, Count: succeeded})

	if len(failed) == 0 {
		return nil
	}
	if rootCause == nil {
		rootCause = firstErr
	}
	return fmt.Errorf("%s failed for %s: %w", spec.verb, strings.Join(failed, ", "), rootCause)
}

// UnloadAll unloads every record holding an instance, dependent-first via
// record recursion. Unload is best-effort: failures are emitted as
// EventUnloadFailure and the sweep continues; the call never aborts a
// teardown.
func (l *Loader) UnloadAll(ctx context.Context, reason string) error {
	if !l.run.TryLock() {
		return ErrBusy
	}
	defer l.run.Unlock()

	logger := ctxlog.FromContext(ctx)
	a := l.current.Load()
	if a == nil {
		l.emit(Event{Name: EventUnloadBefore, Count: 0})
		l.emit(Event{Name: EventUnloadAfter, Count: 0})
		return nil
	}

	unloadable := func(s keeper.State) bool {
		return s == keeper.StateConstructed || s == keeper.StateInitialized
	}
	unloaded := func(s keeper.State) bool { return s == keeper.StateUnloaded }

	l.emit(Event{Name: EventUnloadBefore, Count: countStates(a, unloadable)})
	unloadedBefore := countStates(a, unloaded)

	for _, k := range a.keepers {
		if !unloadable(k.State()) {
			continue
		}
		if err := k.Unload(ctx, reason); err != nil {
			logger.Warn("Module unload failed, continuing teardown.",
				"module", k.ID(), "error", err)
			l.emit(Event{Name: EventUnloadFailure, Module: k.ID(), Err: err})
		}
	}

	succeeded := countStates(a, unloaded) - unloadedBefore
	logger.Info("Unload phase complete.", "reason", reason, "unloaded", succeeded)
	l.emit(Event{Name: EventUnloadAfter, Count: succeeded})
	return nil
}

func countStates(a *arena, match func(keeper.State) bool) int {
	n := 0
	for _, k := range a.keepers {
		if match(k.State()) {
			n++
		}
	}
	return n
}

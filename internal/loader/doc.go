// Package loader is the lifecycle driver. It owns the record arena produced
// by the linker and drives every record through the bulk phases: rebuild
// (discovery, registry, linking), construct, initialize, and unload.
//
// All bulk operations run under a single run mutex and iterate the arena in
// its deterministic order, so side effects replay identically across runs.
// A second bulk call issued while one is in flight is rejected with ErrBusy
// rather than queued. Each bulk operation emits a before and an after event
// carrying a record count; unload failures are emitted as events too, never
// as errors, so a best-effort teardown always sweeps the whole arena.
package loader

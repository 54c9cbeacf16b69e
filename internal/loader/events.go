package loader

// Event names emitted around bulk operations.
const (
	EventRebuildBefore    = "rebuild_registry_before"
	EventRebuildAfter     = "rebuild_registry_after"
	EventConstructBefore  = "construct_all_before"
	EventConstructAfter   = "construct_all_after"
	EventConstructFailure = "construct_failure"
	EventInitBefore       = "init_all_before"
	EventInitAfter        = "init_all_after"
	EventInitFailure      = "init_failure"
	EventUnloadBefore     = "unload_all_before"
	EventUnloadAfter      = "unload_all_after"
	EventUnloadFailure    = "unload_failure"
)

// Event is a coarse-grained lifecycle notification for host-side logging and
// telemetry. Before events carry the number of eligible records, after
// events the number that completed the transition. Failure events name the
// module and carry the error.
type Event struct {
	Name   string
	Count  int
	Module string
	Err    error
}

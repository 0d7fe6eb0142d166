// Package sources defines the capability interface the scheduler polls
// for work, replacing the original's callback-plus-opaque-pointer
// `struct jobqueue { int (*next)(...); void *data; }` with a small Go
// interface (§9's "callback-plus-opaque-pointer polymorphism... is to
// be replaced by a small capability interface"). The scheduler holds a
// Source value and never inspects its internals; `commandstream` and
// `taskgraph` are its two concrete implementations.
package sources

import "github.com/mlaurent/jobqueue/internal/domain"

// Source produces jobs on demand for the scheduler.
type Source interface {
	// Next returns the next ready job and ok=true, or ok=false if no
	// job is available right this instant. ok=false does not imply
	// the source is exhausted: a task-graph source can report ok=false
	// while waiting for an in-flight predecessor to acknowledge
	// Success, and later produce more jobs once it does.
	Next() (job *domain.Job, ok bool)

	// Exhausted reports whether the source can never produce another
	// job, regardless of how many acknowledgements arrive. This backs
	// the scheduler's "something-to-issue" predicate (§4.5): SI =
	// failed-queue non-empty OR !source.Exhausted().
	Exhausted() bool

	// Done notifies the source that job is job-done in the §4.7
	// sense: it acknowledged Success, or it acknowledged non-success
	// with its retry budget exhausted. A task-graph source promotes
	// job's successors to ready on success, and marks job's
	// descendants permanently unreachable on failure, so Exhausted
	// eventually becomes true even when part of the graph can never
	// run (§4.3's "the source may surface a scheduler-level error...
	// this specification leaves the choice of propagation to the
	// failure policy" — here, quiet permanent exclusion from the
	// ready set rather than an abort, see DESIGN.md). Command-stream
	// sources ignore this.
	Done(job *domain.Job, success bool)
}

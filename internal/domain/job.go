// Package domain contains pure, dependency-free types shared by the
// scheduler and its sources: jobs, execution places, and the
// acknowledgements that flow back from a runner.
package domain

import "strconv"

// Outcome classifies how a job finished after a runner invocation.
type Outcome int

const (
	// Success means the job's shell command exited with status 0.
	Success Outcome = iota
	// Failure means the job exited with status 1 or with status 3 or
	// above, or the shell could not be invoked: restart the job, but
	// the place that ran it is still usable.
	Failure
	// BrokenPlace means the job exited with status 2: the place is
	// retired, and the job itself is requeued like a Failure.
	BrokenPlace
)

// String renders the outcome for diagnostics and log lines.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case BrokenPlace:
		return "broken-place"
	default:
		return "unknown"
	}
}

// Job is a single shell command pulled from a source, plus the
// bookkeeping the scheduler needs to retry and, in task-graph mode,
// gate it behind its predecessors.
type Job struct {
	// ID is a monotonically increasing identifier assigned when the
	// job is first read from its source. It is stable across retries.
	ID int

	// Command is the shell command text, verbatim from the source.
	Command string

	// Retries counts how many times this job has already been
	// restarted after a Failure or BrokenPlace outcome.
	Retries int

	// Node is the task-graph node name this job was derived from, or
	// empty in command-stream mode.
	Node string

	// BLevel is the task-graph priority (longest weighted path to an
	// exit node); zero in command-stream mode.
	BLevel float64
}

// Place is one execution slot: either a bare integer index (no
// machine list) or a named machine with its own concurrency cap.
type Place struct {
	// Index is the place's 0-based position in the table. Diagnostics
	// and the -e/--execution-place argument use Index+1.
	Index int

	// Name is the machine-list display name, or empty when the place
	// table was built from a bare count.
	Name string

	// MaxIssue is how many jobs may run on this place at once.
	MaxIssue int

	// InFlight is how many jobs are currently running on this place.
	InFlight int

	// Broken is true once this place has reported a BrokenPlace
	// outcome; a broken place accepts no further jobs.
	Broken bool
}

// Available reports whether this place has room for another job.
func (p *Place) Available() bool {
	return !p.Broken && p.InFlight < p.MaxIssue
}

// Display returns the place's machine-list name if it has one,
// otherwise its 1-based index — the same fallback the original
// diagnostics use when naming a broken place.
func (p *Place) Display() string {
	if p.Name != "" {
		return p.Name
	}
	return displayIndex(p.Index)
}

func displayIndex(i int) string {
	return "#" + strconv.Itoa(i+1)
}

// Acknowledgement is what a runner sends back once a job's shell
// invocation has completed (or could not be started at all). It
// replaces the fixed-size record the original wrote to a pipe; a
// buffered Go channel carries it instead.
type Acknowledgement struct {
	Job     *Job
	Place   int
	Outcome Outcome

	// Err carries the diagnostic that accompanies a Failure caused by
	// an exit status of 3 or above, a shell-invocation failure, or a
	// command that could not be built. Nil for Success, BrokenPlace and
	// a plain exit status 1.
	Err error
}

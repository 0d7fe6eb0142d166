package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mlaurent/jobqueue/internal/container"
	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/metrics"
	"github.com/mlaurent/jobqueue/internal/process"
	"github.com/mlaurent/jobqueue/internal/sources"
	"github.com/mlaurent/jobqueue/internal/tracing"
)

// Scheduler is the §4.5 finite-state machine: it pairs ready jobs with
// idle execution places, supervises workers through Launcher, applies
// §4.7's acknowledgement-handling rules, and enforces the starvation
// guard. It is the single mutator of all scheduler-local state, the
// Go equivalent of the single-threaded parent process §5 describes.
type Scheduler struct {
	places []*domain.Place
	source sources.Source

	retries    bool
	maxRestart int
	verbose    bool

	launcher *process.Launcher
	metrics  *metrics.Collector

	failed  *container.Queue[*domain.Job]
	running *container.ByID[int, *domain.Job]
	acks    chan domain.Acknowledgement

	nextID   int
	jobsRead int
	jobsDone int
}

// Stats summarizes one completed scheduler run.
type Stats struct {
	JobsRead int
	JobsDone int
}

// NewScheduler builds a Scheduler over places and source. cfg supplies
// the retry policy and verbosity; launcher performs the actual
// spawning (process.NewLauncher); mc may be nil to disable metrics.
func NewScheduler(places []*domain.Place, source sources.Source, cfg Config, launcher *process.Launcher, mc *metrics.Collector) *Scheduler {
	capacity := 0
	for _, p := range places {
		capacity += p.MaxIssue
	}
	if capacity < 1 {
		capacity = 1
	}

	return &Scheduler{
		places:     places,
		source:     source,
		retries:    cfg.RestartFailed,
		maxRestart: cfg.MaxRestart,
		verbose:    cfg.Verbose,
		launcher:   launcher,
		metrics:    mc,
		failed:     container.NewQueue[*domain.Job](),
		running:    container.NewByID[int, *domain.Job](),
		// Buffered deeply enough that a worker goroutine's send never
		// blocks even if the scheduler stops reading after a fatal
		// condition: §5 already accepts orphaned workers on abnormal
		// termination, so the only thing a full buffer would cost is a
		// dropped acknowledgement the scheduler was never going to wait
		// for anyway.
		acks: make(chan domain.Acknowledgement, capacity),
	}
}

// Run drives the FSM to completion, returning final counts on a clean
// EXIT or an error on any fatal condition (§7): a launch failure, an
// acknowledgement naming an out-of-range place, or every place going
// broken (the starvation guard).
func (s *Scheduler) Run(ctx context.Context) (Stats, error) {
	if len(s.places) == 0 {
		return Stats{}, fmt.Errorf("application: no execution places configured")
	}

	for {
		pi := s.possibleToIssue()
		si := !s.failed.Empty() || !s.source.Exhausted()
		sw := s.jobsRead > s.jobsDone

		if pi && si {
			issued, err := s.issue(ctx)
			if err != nil {
				return s.abort(ctx, err)
			}
			if issued || !sw {
				continue
			}
			// SI was true but no job was actually ready to issue. With
			// nothing in flight (sw false) this is command-stream mode
			// having just reached end of input inside Next, so the
			// source now reports Exhausted and re-deriving the
			// predicates above reaches EXIT. With a job outstanding (in
			// task-graph mode, every pending node still waiting on an
			// in-flight predecessor) fall through to WAIT: an
			// acknowledgement that can make progress is already in
			// flight, and re-deriving PI/SI/SW and retrying ISSUE
			// instead would spin the loop without ever reading it
			// (§8's progress property only promises ISSUE when a job
			// is actually available).
		} else if !si && !sw {
			return Stats{JobsRead: s.jobsRead, JobsDone: s.jobsDone}, nil
		}

		waitStart := time.Now()
		ack, ok := <-s.acks
		s.metrics.ObserveStep("wait", time.Since(waitStart))
		if !ok {
			return s.abort(ctx, domain.ErrAckPipeClosed)
		}
		if err := s.handleAcknowledgement(ack); err != nil {
			return s.abort(ctx, err)
		}
	}
}

// possibleToIssue is PI (§4.5): at least one place has headroom.
func (s *Scheduler) possibleToIssue() bool {
	for _, p := range s.places {
		if p.Available() {
			return true
		}
	}
	return false
}

func (s *Scheduler) pickPlace() *domain.Place {
	for _, p := range s.places {
		if p.Available() {
			return p
		}
	}
	return nil
}

// issue implements the ISSUE transition (§4.5): pick the lowest
// eligible place, prefer a requeued job over a fresh one, spawn it.
// issued is false when PI and SI both held but no job was actually
// ready: in task-graph mode, every pending node is still gated on an
// in-flight predecessor; in command-stream mode, Next has just reached
// the end of input. The caller then waits if a job is outstanding and
// otherwise re-derives the predicates rather than re-issue.
func (s *Scheduler) issue(ctx context.Context) (issued bool, err error) {
	issueStart := time.Now()
	defer func() { s.metrics.ObserveStep("issue", time.Since(issueStart)) }()

	place := s.pickPlace()
	if place == nil {
		return false, nil
	}

	var job *domain.Job
	source := "fresh"
	if j, ok := s.failed.PopFront(); ok {
		job = j
		source = "requeue"
	} else if j, ok := s.source.Next(); ok {
		job = j
		job.ID = s.nextID
		s.nextID++
		s.jobsRead++
	} else {
		return false, nil
	}

	place.InFlight++
	s.running.Put(job.ID, job)
	s.metrics.JobRead(source)
	s.metrics.SetInFlight(place.Display(), place.InFlight)

	stepCtx, span := tracing.StartStep(ctx, "issue",
		attribute.Int("job.id", job.ID),
		attribute.Int("place.index", place.Index),
	)
	launchErr := s.launcher.Launch(stepCtx, job, place, s.acks)
	tracing.RecordError(span, launchErr)
	span.End()
	if launchErr != nil {
		s.running.Delete(job.ID)
		return false, fmt.Errorf("application: %w", launchErr)
	}

	if s.verbose {
		log.Printf("jobqueue: issued job %d to place %s: %s", job.ID, place.Display(), job.Command)
	}
	return true, nil
}

// handleAcknowledgement implements §4.7's five numbered steps.
func (s *Scheduler) handleAcknowledgement(ack domain.Acknowledgement) error {
	if ack.Place < 0 || ack.Place >= len(s.places) {
		return fmt.Errorf("application: acknowledgement names out-of-range place %d", ack.Place)
	}
	place := s.places[ack.Place]

	outcome := ack.Outcome
	if outcome == domain.BrokenPlace && !s.retries {
		// §9's open question, resolved: without retries, place
		// retirement is meaningless, so treat this as an ordinary
		// failure instead.
		outcome = domain.Failure
	}

	brokenNow := false
	if s.retries && outcome == domain.BrokenPlace {
		place.Broken = true
		brokenNow = true
		log.Printf("jobqueue: execution place %s reported broken", place.Display())
	}

	if brokenNow {
		place.InFlight = place.MaxIssue
	} else {
		place.InFlight--
	}
	s.metrics.SetInFlight(place.Display(), place.InFlight)

	jobDone := true
	if s.retries {
		switch outcome {
		case domain.Success:
			jobDone = true
		case domain.Failure, domain.BrokenPlace:
			if ack.Job.Retries < s.maxRestart {
				ack.Job.Retries++
				s.running.Delete(ack.Job.ID)
				s.failed.PushBack(ack.Job)
				jobDone = false
			}
		}
	}

	if jobDone {
		s.running.Delete(ack.Job.ID)
		s.jobsDone++
		s.metrics.JobDone(outcome.String())
		if s.verbose {
			log.Printf("jobqueue: job %d done on place %s: %s", ack.Job.ID, place.Display(), outcome)
		}
		s.source.Done(ack.Job, outcome == domain.Success)
	}

	if s.allPlacesBroken() {
		return domain.ErrAllPlacesBroken
	}
	return nil
}

func (s *Scheduler) allPlacesBroken() bool {
	broken := 0
	for _, p := range s.places {
		if p.Broken {
			broken++
		}
	}
	s.metrics.SetBrokenPlaces(broken)
	return broken == len(s.places)
}

// abort wraps a fatal condition: it drains whatever acknowledgements
// are already in flight (bounded by ctx) so the final job counts are
// as accurate as orphaning the rest allows, then returns err.
func (s *Scheduler) abort(ctx context.Context, err error) (Stats, error) {
	s.drain(ctx)
	return Stats{JobsRead: s.jobsRead, JobsDone: s.jobsDone}, err
}

// drain waits on outstanding worker goroutines via errgroup, the way
// `infrastructure/units/answerer_unit.go` waits on a bounded fan-out,
// until every already-issued job has acknowledged or ctx is done.
// Workers that never acknowledge within ctx are orphaned, which §5
// explicitly accepts as the cost of abnormal termination.
func (s *Scheduler) drain(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for s.running.Len() > 0 {
			select {
			case ack := <-s.acks:
				_ = s.handleAcknowledgement(ack)
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	_ = g.Wait()
}

package process

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/metrics"
)

// Launcher spawns one worker per ISSUE and reports its result on a
// channel of domain.Acknowledgement, taking the place of the original's
// fork-plus-pipe pair. It throttles spawn rate with
// `golang.org/x/time/rate` and implements §5's mandated "brief
// sleep-retry loop" for launch failures, the Go analogue of a
// persistently failing fork.
type Launcher struct {
	runner  *Runner
	metrics *metrics.Collector

	limiter *rate.Limiter

	maxStartAttempts int
	startRetryDelay  time.Duration
}

// NewLauncher builds a Launcher around runner. spawnRate and burst
// configure the worker-spawn throttle; a spawnRate of rate.Inf
// disables throttling. mc may be nil to disable metrics.
func NewLauncher(runner *Runner, spawnRate rate.Limit, burst int, mc *metrics.Collector) *Launcher {
	return &Launcher{
		runner:           runner,
		metrics:          mc,
		limiter:          rate.NewLimiter(spawnRate, burst),
		maxStartAttempts: 3,
		startRetryDelay:  50 * time.Millisecond,
	}
}

// Launch builds and starts job's command against place. It blocks only
// long enough to obtain spawn-rate headroom and to retry a launch
// failure a bounded number of times (§5); the shell invocation itself
// runs to completion in a background goroutine, which delivers exactly
// one domain.Acknowledgement on acks.
//
// A non-nil return is a terminal launch failure exhausting the retry
// budget (§5: "a terminal failure aborts the scheduler"); the caller
// must treat the scheduler run as fatal.
func (l *Launcher) Launch(ctx context.Context, job *domain.Job, place *domain.Place, acks chan<- domain.Acknowledgement) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("process: spawn throttle: %w", err)
	}

	var cmd interface {
		Wait() error
	}

	for attempt := 1; ; attempt++ {
		started, buildErr, isLaunchFailure := l.runner.start(ctx, job, place)
		if buildErr != nil {
			if !isLaunchFailure {
				// Command-construction failure (e.g. the 64 KiB
				// ceiling): an ordinary job outcome, not a scheduler
				// fatal (§4.6 point 2).
				acks <- domain.Acknowledgement{Job: job, Place: place.Index, Outcome: domain.Failure, Err: buildErr}
				return nil
			}
			if attempt >= l.maxStartAttempts {
				return fmt.Errorf("process: spawn failed after %d attempts: %w", attempt, buildErr)
			}
			time.Sleep(l.startRetryDelay)
			continue
		}
		cmd = started
		break
	}

	go func() {
		runStart := time.Now()
		outcome, diag := classify(cmd.Wait())
		l.metrics.ObserveRunner(time.Since(runStart))
		acks <- domain.Acknowledgement{Job: job, Place: place.Index, Outcome: outcome, Err: diag}
	}()
	return nil
}

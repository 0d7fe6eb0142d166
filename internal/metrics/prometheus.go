// Package metrics exposes the scheduler's operational counters and
// gauges through Prometheus, grounded on
// `infrastructure/middleware/prometheus_metrics.go`'s promauto-registered
// CounterVec/GaugeVec/HistogramVec shape.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every metric the scheduler reports. Use New once per
// process. A nil *Collector is valid and every method on it is a
// no-op, so metrics can be wired in optionally.
type Collector struct {
	jobsRead *prometheus.CounterVec
	jobsDone *prometheus.CounterVec

	inFlight     *prometheus.GaugeVec
	brokenPlaces prometheus.Gauge

	issueWaitDuration *prometheus.HistogramVec
	runnerDuration    prometheus.Histogram
}

// New registers and returns a Collector against the default registry.
func New() *Collector {
	return &Collector{
		jobsRead: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobqueue_jobs_read_total",
				Help: "Total number of jobs admitted to the scheduler, including requeues.",
			},
			[]string{"source"},
		),
		jobsDone: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobqueue_jobs_done_total",
				Help: "Total number of jobs that reached a terminal outcome, by outcome.",
			},
			[]string{"outcome"},
		),
		inFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "jobqueue_in_flight",
				Help: "Current number of in-flight jobs per execution place.",
			},
			[]string{"place"},
		),
		brokenPlaces: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobqueue_broken_places",
				Help: "Current number of execution places marked broken.",
			},
		),
		issueWaitDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobqueue_fsm_step_duration_seconds",
				Help:    "Duration of each scheduler FSM step, by step kind.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		runnerDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobqueue_runner_duration_seconds",
				Help:    "Wall-clock duration of a single shell invocation.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// JobRead records admission of a job from the given source kind
// ("fresh" or "requeue").
func (c *Collector) JobRead(source string) {
	if c == nil {
		return
	}
	c.jobsRead.WithLabelValues(source).Inc()
}

// JobDone records a job reaching a terminal outcome.
func (c *Collector) JobDone(outcome string) {
	if c == nil {
		return
	}
	c.jobsDone.WithLabelValues(outcome).Inc()
}

// SetInFlight records the current in-flight count for a place.
func (c *Collector) SetInFlight(place string, n int) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(place).Set(float64(n))
}

// SetBrokenPlaces records the current count of broken places.
func (c *Collector) SetBrokenPlaces(n int) {
	if c == nil {
		return
	}
	c.brokenPlaces.Set(float64(n))
}

// ObserveStep records how long one FSM step ("issue", "wait") took.
func (c *Collector) ObserveStep(step string, d time.Duration) {
	if c == nil {
		return
	}
	c.issueWaitDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveRunner records how long a single shell invocation took.
func (c *Collector) ObserveRunner(d time.Duration) {
	if c == nil {
		return
	}
	c.runnerDuration.Observe(d.Seconds())
}

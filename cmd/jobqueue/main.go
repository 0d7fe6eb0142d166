// Command jobqueue dispatches shell jobs across a bounded set of
// execution places, following the flag-and-log CLI style of
// `cmd/generate_benchmark_dataset/main.go`: stdlib `flag` parsing, no
// CLI framework, fatal conditions reported with a single `log.Fatalf`
// line (§7).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/time/rate"

	"github.com/mlaurent/jobqueue/internal/application"
	"github.com/mlaurent/jobqueue/internal/metrics"
	"github.com/mlaurent/jobqueue/internal/process"
	"github.com/mlaurent/jobqueue/internal/sources"
	"github.com/mlaurent/jobqueue/internal/sources/commandstream"
	"github.com/mlaurent/jobqueue/internal/sources/taskgraph"
)

// version is reported by --version. It is a stub: spec.md excludes
// version reporting from the specified core ("textual help, version
// reporting... excluded as external collaborators").
const version = "jobqueue 0.1.0"

func main() {
	args := os.Args[1:]
	for _, a := range args {
		if a == "--version" {
			fmt.Println(version)
			return
		}
	}

	defaultsPath := extractConfigFlag(args)
	defaults, err := application.LoadDefaults(defaultsPath)
	if err != nil {
		log.Fatalf("jobqueue: %v", err)
	}

	cfg, err := application.ParseFlags(stripConfigFlag(args), defaults)
	if err != nil {
		log.Fatalf("jobqueue: %v", err)
	}

	var warnings int
	places, err := application.BuildPlaces(cfg, func(format string, a ...any) {
		warnings++
		log.Printf(format, a...)
	})
	if err != nil {
		log.Fatalf("jobqueue: %v", err)
	}

	src, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("jobqueue: %v", err)
	}

	runner := process.NewRunner(cfg.RunnerMode())
	mc := metrics.New()
	launcher := process.NewLauncher(runner, rate.Limit(200), 20, mc)

	sched := application.NewScheduler(places, src, cfg, launcher, mc)

	if cfg.Verbose {
		log.Printf("jobqueue: starting with %s", cfg.Describe())
	}

	stats, err := sched.Run(context.Background())
	if err != nil {
		log.Fatalf("jobqueue: %v", err)
	}

	if abandoner, ok := src.(interface{ Abandoned() []string }); ok {
		if names := abandoner.Abandoned(); len(names) > 0 {
			log.Printf("jobqueue: %d node(s) never ran (predecessor failed): %v", len(names), names)
		}
	}

	if cfg.Verbose {
		log.Printf("jobqueue: done: jobs_read=%d jobs_done=%d", stats.JobsRead, stats.JobsDone)
	}
}

// buildSource selects the command-stream or task-graph source per
// -t/--task-graph (§4.2, §4.3).
func buildSource(cfg application.Config) (sources.Source, error) {
	diag := func(format string, a ...any) { log.Printf(format, a...) }
	if cfg.TaskGraph {
		return taskgraph.Parse(cfg.Files)
	}
	return commandstream.New(cfg.Files, diag), nil
}

// extractConfigFlag finds --config/-config's value, if given, without
// involving the main flag set: the defaults file it names must be
// loaded before that flag set's defaults are established.
func extractConfigFlag(args []string) string {
	for i, a := range args {
		if (a == "--config" || a == "-config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// stripConfigFlag removes --config/-config and its value from args so
// application.ParseFlags's flag set (which does not define -config)
// does not choke on it.
func stripConfigFlag(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--config" || a == "-config" {
			i++
			continue
		}
		out = append(out, a)
	}
	return out
}

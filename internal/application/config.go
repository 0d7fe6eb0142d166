// Package application wires the scheduler FSM together: CLI-derived
// configuration, an optional YAML defaults file, and the Scheduler
// itself. Config follows the struct-tag validation style of
// `internal/application/config.go`'s GraphConfig in the teacher
// (go-playground/validator/v10), adapted to the handful of mutually
// exclusive flags §6 specifies instead of a graph topology.
package application

import (
	"flag"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/process"
)

// Config is the fully resolved, validated configuration for one
// scheduler run, populated from CLI flags (§6) and optionally
// overlaid with a YAML defaults file (LoadDefaults).
type Config struct {
	// MachineListFile is the -m/--machine-list path. Mutually exclusive
	// with PassExecutionPlace and NumPlaces.
	MachineListFile string `yaml:"machine_list_file" validate:"omitempty"`
	// PassExecutionPlace is -e/--execution-place.
	PassExecutionPlace bool `yaml:"pass_execution_place"`
	// NumPlaces is -n/--nodes: the count of identical places to create
	// when no machine list is given.
	NumPlaces int `yaml:"num_places" validate:"omitempty,min=1"`
	// RestartFailed is -r/--restart-failed: enables the retry/requeue
	// policy (§4.7).
	RestartFailed bool `yaml:"restart_failed"`
	// MaxRestart is --max-restart=N: the retry budget per job when
	// RestartFailed is set.
	MaxRestart int `yaml:"max_restart" validate:"omitempty,min=0"`
	// TaskGraph is -t/--task-graph: read input as a task graph instead
	// of a plain command stream.
	TaskGraph bool `yaml:"task_graph"`
	// Verbose is -v/--verbose.
	Verbose bool `yaml:"verbose"`
	// MaxIssue is -x/--max-issue=N: the default per-place concurrency
	// cap used when places come from NumPlaces rather than a machine
	// file (§4.4).
	MaxIssue int `yaml:"max_issue" validate:"omitempty,min=1"`
	// Files are the positional job/task-graph input files. Empty means
	// read from standard input (§6).
	Files []string `yaml:"-"`
}

// defaultConfig returns a Config with every default named in §6's
// invocation grammar.
func defaultConfig() Config {
	return Config{
		NumPlaces: 1,
		MaxIssue:  1,
	}
}

// ParseFlags builds a Config from args (normally os.Args[1:]) layered
// on top of defaults, then validates it. It mirrors
// `cmd/generate_benchmark_dataset/main.go`'s stdlib-`flag` CLI style;
// the teacher has no CLI framework dependency to carry forward.
func ParseFlags(args []string, defaults Config) (Config, error) {
	cfg := defaults

	fs := flag.NewFlagSet("jobqueue", flag.ContinueOnError)
	fs.StringVar(&cfg.MachineListFile, "machine-list", cfg.MachineListFile, "machine list file")
	fs.StringVar(&cfg.MachineListFile, "m", cfg.MachineListFile, "machine list file (shorthand)")
	fs.BoolVar(&cfg.PassExecutionPlace, "execution-place", cfg.PassExecutionPlace, "pass the execution place index to each command")
	fs.BoolVar(&cfg.PassExecutionPlace, "e", cfg.PassExecutionPlace, "pass the execution place index (shorthand)")
	fs.IntVar(&cfg.NumPlaces, "nodes", cfg.NumPlaces, "number of identical execution places")
	fs.IntVar(&cfg.NumPlaces, "n", cfg.NumPlaces, "number of identical execution places (shorthand)")
	fs.BoolVar(&cfg.RestartFailed, "restart-failed", cfg.RestartFailed, "requeue failed jobs up to max-restart times")
	fs.BoolVar(&cfg.RestartFailed, "r", cfg.RestartFailed, "requeue failed jobs (shorthand)")
	fs.IntVar(&cfg.MaxRestart, "max-restart", cfg.MaxRestart, "maximum retry attempts per job")
	fs.BoolVar(&cfg.TaskGraph, "task-graph", cfg.TaskGraph, "read input files as a task graph")
	fs.BoolVar(&cfg.TaskGraph, "t", cfg.TaskGraph, "read input files as a task graph (shorthand)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "print a diagnostic per issue and per finished job")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "print diagnostics (shorthand)")
	fs.IntVar(&cfg.MaxIssue, "max-issue", cfg.MaxIssue, "default per-place concurrency cap")
	fs.IntVar(&cfg.MaxIssue, "x", cfg.MaxIssue, "default per-place concurrency cap (shorthand)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Files = fs.Args()

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation plus the mutually-exclusive-flag
// rule §6 states as plain prose rather than as a tag.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return domain.NewConfigError("", err.Error(), err)
	}

	if cfg.MachineListFile != "" && cfg.PassExecutionPlace {
		return domain.NewConfigError("-m/-e", "mutually exclusive", domain.ErrMutuallyExclusiveFlags)
	}
	if cfg.MachineListFile != "" && cfg.NumPlaces != 1 {
		return domain.NewConfigError("-m/-n", "mutually exclusive", domain.ErrMutuallyExclusiveFlags)
	}
	return nil
}

// RunnerMode derives the process.Mode §4.6 specifies from cfg: machine
// name takes priority (mutually exclusive with the other two by
// construction), then pass-execution-place, then unchanged.
func (c Config) RunnerMode() process.Mode {
	switch {
	case c.MachineListFile != "":
		return process.ModeMachineName
	case c.PassExecutionPlace:
		return process.ModePlaceIndex
	default:
		return process.ModeUnchanged
	}
}

// Describe formats a one-line summary of cfg for verbose diagnostics.
func (c Config) Describe() string {
	return fmt.Sprintf("places=%d max-issue=%d restart=%v max-restart=%d task-graph=%v",
		c.NumPlaces, c.MaxIssue, c.RestartFailed, c.MaxRestart, c.TaskGraph)
}

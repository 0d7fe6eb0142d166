package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/process"
	"github.com/mlaurent/jobqueue/internal/sources/commandstream"
	"github.com/mlaurent/jobqueue/internal/sources/taskgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJobFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func places(maxIssue ...int) []*domain.Place {
	ps := make([]*domain.Place, len(maxIssue))
	for i, m := range maxIssue {
		ps[i] = &domain.Place{Index: i, MaxIssue: m}
	}
	return ps
}

func runScheduler(t *testing.T, src interface {
	Next() (*domain.Job, bool)
	Exhausted() bool
	Done(*domain.Job, bool)
}, ps []*domain.Place, cfg Config, mode process.Mode) (Stats, error) {
	t.Helper()
	launcher := process.NewLauncher(process.NewRunner(mode), rate.Inf, 8, nil)
	sched := NewScheduler(ps, src, cfg, launcher, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sched.Run(ctx)
}

// Scenario 1 (§8): four identical commands, single place, no retries.
func TestScheduler_Scenario1_SerialNoRetries(t *testing.T) {
	file := writeJobFile(t, "echo a\necho b\necho c\necho d\n")
	src := commandstream.New([]string{file}, nil)

	stats, err := runScheduler(t, src, places(1), Config{}, process.ModeUnchanged)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.JobsRead)
	assert.Equal(t, 4, stats.JobsDone)
}

// Scenario 2 (§8): pass-execution-place with two places.
func TestScheduler_Scenario2_PassExecutionPlace(t *testing.T) {
	file := writeJobFile(t, "true\ntrue\ntrue\ntrue\ntrue\n")
	src := commandstream.New([]string{file}, nil)

	stats, err := runScheduler(t, src, places(1, 1), Config{PassExecutionPlace: true}, process.ModePlaceIndex)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.JobsDone)
}

// Scenario 3 (§8): machine-list-shaped capacities, m0=1, m1=2.
func TestScheduler_Scenario3_PerPlaceCapacity(t *testing.T) {
	file := writeJobFile(t, "sleep 0.02\nsleep 0.02\nsleep 0.02\n")
	src := commandstream.New([]string{file}, nil)

	stats, err := runScheduler(t, src, places(1, 2), Config{}, process.ModeUnchanged)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.JobsDone)
}

// Scenario 4 (§8): --max-restart=2, a job that fails twice then succeeds.
func TestScheduler_Scenario4_RetryUntilSuccess(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "attempts")
	cmd := "n=$(cat " + counter + " 2>/dev/null || echo 0); n=$((n+1)); echo $n > " + counter + "; [ \"$n\" -ge 3 ] && exit 0 || exit 1"
	file := writeJobFile(t, cmd+"\n")
	src := commandstream.New([]string{file}, nil)

	cfg := Config{RestartFailed: true, MaxRestart: 2}
	stats, err := runScheduler(t, src, places(1), cfg, process.ModeUnchanged)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.JobsRead)
	assert.Equal(t, 1, stats.JobsDone)

	attempts, readErr := os.ReadFile(counter)
	require.NoError(t, readErr)
	assert.Equal(t, "3\n", string(attempts))
}

// Scenario 5 (§8): a single place whose job exits 2 under retries; the
// scheduler must terminate fatally once every place is broken.
func TestScheduler_Scenario5_BrokenPlaceIsFatal(t *testing.T) {
	file := writeJobFile(t, "exit 2\n")
	src := commandstream.New([]string{file}, nil)

	cfg := Config{RestartFailed: true, MaxRestart: 2}
	_, err := runScheduler(t, src, places(1), cfg, process.ModeUnchanged)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAllPlacesBroken))
}

// Scenario 6 (§8): task-graph A -> B, B must not run before A succeeds.
func TestScheduler_Scenario6_TaskGraphOrdering(t *testing.T) {
	file := writeJobFile(t, "A 1 echo a\nB 1 echo b\nA -> B 0\n")
	src, err := taskgraph.Parse([]string{file})
	require.NoError(t, err)

	stats, runErr := runScheduler(t, src, places(1), Config{}, process.ModeUnchanged)
	require.NoError(t, runErr)
	assert.Equal(t, 2, stats.JobsRead)
	assert.Equal(t, 2, stats.JobsDone)
}

// With more execution places than currently-ready nodes, PI and SI can
// both hold while no node is actually ready (B is still gated on A's
// in-flight acknowledgement): the FSM must fall through to WAIT rather
// than respin ISSUE forever. Regression test for the graph-mode
// livelock described in §8's progress property.
func TestScheduler_TaskGraphOrdering_MorePlacesThanReadyNodes(t *testing.T) {
	file := writeJobFile(t, "A 1 echo a\nB 1 echo b\nA -> B 0\n")
	src, err := taskgraph.Parse([]string{file})
	require.NoError(t, err)

	stats, runErr := runScheduler(t, src, places(1, 1), Config{}, process.ModeUnchanged)
	require.NoError(t, runErr)
	assert.Equal(t, 2, stats.JobsRead)
	assert.Equal(t, 2, stats.JobsDone)
}

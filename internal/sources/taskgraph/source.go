package taskgraph

import (
	"fmt"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/graph"
)

// Source is the task-graph job source: a parsed, validated DAG of
// nodes plus the ready-set bookkeeping §4.3/§4.8 specify. It
// implements sources.Source.
type Source struct {
	g     *graph.Graph[nodeSpec]
	index map[string]int

	pending   []int
	abandoned []bool
	blevel    []float64

	ready []int

	issuedCount    int
	abandonedCount int
}

// Parse reads and validates every file in filenames, building the
// task graph per §4.3's grammar and staging-then-validate rules, and
// returns a ready-to-use Source. An empty ready set right after
// parsing (with a non-empty graph) would mean the input's edges
// already encode a cycle, which TopoSort below would have rejected,
// so it cannot happen here.
func Parse(filenames []string) (*Source, error) {
	nodes, edges, err := parseFiles(filenames)
	if err != nil {
		return nil, err
	}

	g := graph.New[nodeSpec]()
	index := make(map[string]int, len(nodes))
	for _, n := range nodes {
		index[n.name] = g.AddNode(n)
	}

	for _, e := range edges {
		if err := g.AddEdge(index[e.src], index[e.dst], e.cost); err != nil {
			return nil, fmt.Errorf("taskgraph: %s:%d: %w", e.file, e.line, err)
		}
	}

	blevel, err := g.BLevel(
		func(i int) float64 { return g.Node(i).cost },
		func(e graph.Edge) float64 { return e.Data },
	)
	if err != nil {
		return nil, fmt.Errorf("taskgraph: %w (the graph must be acyclic)", graph.ErrCycle)
	}

	pending := make([]int, g.Len())
	var ready []int
	for i := 0; i < g.Len(); i++ {
		pending[i] = len(g.In(i))
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	return &Source{
		g:         g,
		index:     index,
		pending:   pending,
		abandoned: make([]bool, g.Len()),
		blevel:    blevel,
		ready:     ready,
	}, nil
}

// Next returns the ready node with the greatest b-level, ties broken
// by insertion (first-seen) order, i.e. the smaller graph index
// (§4.8).
func (s *Source) Next() (*domain.Job, bool) {
	if len(s.ready) == 0 {
		return nil, false
	}

	bestPos, bestIdx := 0, s.ready[0]
	for pos := 1; pos < len(s.ready); pos++ {
		i := s.ready[pos]
		if s.blevel[i] > s.blevel[bestIdx] || (s.blevel[i] == s.blevel[bestIdx] && i < bestIdx) {
			bestPos, bestIdx = pos, i
		}
	}

	s.ready = append(s.ready[:bestPos], s.ready[bestPos+1:]...)
	s.issuedCount++

	n := s.g.Node(bestIdx)
	job := &domain.Job{
		Command: n.cmd,
		Node:    n.name,
		BLevel:  s.blevel[bestIdx],
	}
	return job, true
}

// Exhausted reports that every node has either been issued or
// abandoned (because a predecessor terminally failed), and none are
// currently ready — i.e. no future Done call can make Next succeed
// again.
func (s *Source) Exhausted() bool {
	return len(s.ready) == 0 && s.issuedCount+s.abandonedCount == s.g.Len()
}

// Done promotes job's successors to ready on success, decrementing
// each one's pending-predecessor count, or marks every descendant of
// job permanently unreachable on failure (§4.3, §4.7 point 5).
func (s *Source) Done(job *domain.Job, success bool) {
	i, ok := s.index[job.Node]
	if !ok {
		return
	}

	if success {
		for _, e := range s.g.Out(i) {
			s.pending[e.Dst]--
			if s.pending[e.Dst] == 0 && !s.abandoned[e.Dst] {
				s.ready = append(s.ready, e.Dst)
			}
		}
		return
	}

	for _, e := range s.g.Out(i) {
		s.abandonDescendant(e.Dst)
	}
}

func (s *Source) abandonDescendant(i int) {
	if s.abandoned[i] {
		return
	}
	s.abandoned[i] = true
	s.abandonedCount++
	for _, e := range s.g.Out(i) {
		s.abandonDescendant(e.Dst)
	}
}

// Abandoned reports the names of nodes that will never run because a
// predecessor terminally failed. The scheduler surfaces this once at
// exit (§9's open question on failure propagation, resolved in
// DESIGN.md: quiet exclusion from the ready set plus a one-line
// summary rather than an abort).
func (s *Source) Abandoned() []string {
	var names []string
	for i, a := range s.abandoned {
		if a {
			names = append(names, s.g.Node(i).name)
		}
	}
	return names
}

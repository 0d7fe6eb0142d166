// Package commandstream implements the plain command-queue source
// (§4.2): an ordered chain of input files (or standard input, with no
// files given) yielding one useful line at a time. It is grounded on
// `cq_next`/`cq_get_next_jobfile` in `original_source/queue.c` and
// `read_stripped_line`/`useful_line` in `original_source/support.c`.
//
// The original's "interrupts during read must be transparently
// resumed" requirement (§4.2, §5) is handled for free in Go: the
// runtime's blocking syscalls already retry on EINTR, so there is no
// spurious empty read to discriminate from genuine end-of-file the
// way `read_stripped_line` has to with `fgets`/`feof`.
package commandstream

import (
	"bufio"
	"os"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/textline"
)

// Source reads command lines from a chain of files, falling back to
// standard input when no files are given.
type Source struct {
	names     []string
	useStdin  bool
	nextIndex int

	cur      *bufio.Scanner
	curClose func() error

	diag func(format string, args ...any)
}

// New creates a command-stream source over filenames, in the order
// given. An empty filenames slice means "read from standard input",
// matching §6's "with no positional files, jobs are read from
// standard input." diag receives a formatted line for every file that
// fails to open (the original's `can_not_open_file`); it may be nil.
func New(filenames []string, diag func(format string, args ...any)) *Source {
	if diag == nil {
		diag = func(string, ...any) {}
	}
	return &Source{
		names:    filenames,
		useStdin: len(filenames) == 0,
		diag:     diag,
	}
}

// Next returns the next useful line as a fresh *domain.Job with
// Command set and everything else zero, or ok=false once every file
// (or stdin) has been exhausted.
func (s *Source) Next() (*domain.Job, bool) {
	for {
		if s.cur == nil {
			if !s.openNext() {
				return nil, false
			}
		}

		if !s.cur.Scan() {
			s.closeCurrent()
			continue
		}

		line := s.cur.Text()
		if !textline.Useful(line) {
			continue
		}

		return &domain.Job{Command: line}, true
	}
}

// Exhausted reports whether every input file (or stdin) has already
// been consumed. Command-stream exhaustion is permanent: once true it
// never reverts, since no external event produces a new file.
func (s *Source) Exhausted() bool {
	return s.cur == nil && s.nextIndex >= len(s.names) && !s.useStdin
}

// Done is a no-op: the command-stream source carries no dependency
// information between jobs.
func (s *Source) Done(*domain.Job, bool) {}

func (s *Source) openNext() bool {
	for {
		if s.useStdin {
			s.useStdin = false
			s.cur = bufio.NewScanner(os.Stdin)
			s.curClose = func() error { return nil }
			return true
		}

		if s.nextIndex >= len(s.names) {
			return false
		}

		name := s.names[s.nextIndex]
		s.nextIndex++

		f, err := os.Open(name)
		if err != nil {
			s.diag("Can't open file %s: %v\n", name, err)
			continue
		}

		s.cur = bufio.NewScanner(f)
		s.curClose = f.Close
		return true
	}
}

func (s *Source) closeCurrent() {
	if s.curClose != nil {
		_ = s.curClose()
	}
	s.cur = nil
	s.curClose = nil
}

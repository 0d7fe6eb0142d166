// Package machinelist loads the optional machine-list file (§4.4,
// §6) into an ordered slice of execution places. It is grounded on
// `read_machine_list` in `original_source/jobqueue.c`: the same
// "name, optional trailing positive integer defaulting to 1" grammar,
// the same "malformed trailing integer is a warning, not fatal"
// forward-compatibility rule, and the same useful-line filtering
// (`#`-comments and blank lines skipped).
package machinelist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/textline"
)

// Load reads fname and returns one domain.Place per useful line, in
// file order, with Index set to each place's 0-based position. warn
// is called with a formatted diagnostic whenever a trailing capacity
// integer is malformed; the line still produces a place with
// MaxIssue=1 rather than aborting the whole load (§4.4).
func Load(fname string, warn func(format string, args ...any)) ([]domain.Place, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("machinelist: can't open %s: %w", fname, err)
	}
	defer f.Close()

	if warn == nil {
		warn = func(string, ...any) {}
	}

	var places []domain.Place
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !textline.Useful(line) {
			continue
		}

		fields := textline.Fields(line)
		name := fields[0]
		maxIssue := 1

		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				warn("Warning: machine list contains a bad number of issues for a node. Assuming single issue. (%s)\n", line)
				maxIssue = 1
			} else {
				maxIssue = n
			}
		}

		places = append(places, domain.Place{
			Index:    len(places),
			Name:     name,
			MaxIssue: maxIssue,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("machinelist: reading %s: %w", fname, err)
	}

	return places, nil
}

package application

import (
	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/mlaurent/jobqueue/internal/machinelist"
)

// BuildPlaces constructs the execution-place table (§4.4): from the
// machine file named in cfg if one is given, else as cfg.NumPlaces
// identical places each capped at cfg.MaxIssue. warn receives
// diagnostics for malformed machine-list capacity fields; it may be
// nil.
func BuildPlaces(cfg Config, warn func(format string, args ...any)) ([]*domain.Place, error) {
	if cfg.MachineListFile != "" {
		loaded, err := machinelist.Load(cfg.MachineListFile, warn)
		if err != nil {
			return nil, err
		}
		places := make([]*domain.Place, len(loaded))
		for i := range loaded {
			places[i] = &loaded[i]
		}
		return places, nil
	}

	places := make([]*domain.Place, cfg.NumPlaces)
	for i := range places {
		places[i] = &domain.Place{Index: i, MaxIssue: cfg.MaxIssue}
	}
	return places, nil
}

package process

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlaurent/jobqueue/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestLauncher_ExhaustedStartRetriesIsFatal(t *testing.T) {
	r := NewRunner(ModeUnchanged)
	r.Shell = "/no/such/shell-binary"

	l := NewLauncher(r, rate.Inf, 1, nil)
	l.startRetryDelay = time.Millisecond

	acks := make(chan domain.Acknowledgement, 1)
	job := &domain.Job{ID: 1, Command: "exit 0"}
	place := &domain.Place{Index: 0, MaxIssue: 1}

	err := l.Launch(context.Background(), job, place, acks)
	assert.Error(t, err, "a persistently failing launch must be reported as fatal")
}

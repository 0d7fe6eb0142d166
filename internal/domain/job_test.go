package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlace_AvailableRespectsBrokenAndCapacity(t *testing.T) {
	p := &Place{MaxIssue: 2}
	assert.True(t, p.Available())

	p.InFlight = 2
	assert.False(t, p.Available())

	p.InFlight = 0
	p.Broken = true
	assert.False(t, p.Available())
}

func TestPlace_DisplayPrefersNameOverIndex(t *testing.T) {
	named := &Place{Index: 4, Name: "node-a"}
	assert.Equal(t, "node-a", named.Display())

	anonymous := &Place{Index: 4}
	assert.Equal(t, "#5", anonymous.Display())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "failure", Failure.String())
	assert.Equal(t, "broken-place", BrokenPlace.String())
}


package textline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUseful(t *testing.T) {
	cases := map[string]bool{
		"":            false,
		"   ":         false,
		"# a comment": false,
		"A 1 echo hi": true,
		"  A 1 cmd":   true,
	}
	for line, want := range cases {
		assert.Equal(t, want, Useful(line), "line %q", line)
	}
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{"A", "->", "B", "5"}, Fields("A  -> B   5"))
}

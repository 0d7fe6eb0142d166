package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlaces_FromCountWhenNoMachineList(t *testing.T) {
	cfg := Config{NumPlaces: 3, MaxIssue: 2}
	places, err := BuildPlaces(cfg, nil)
	require.NoError(t, err)
	require.Len(t, places, 3)
	for i, p := range places {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, 2, p.MaxIssue)
	}
}

func TestBuildPlaces_FromMachineListFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machines")
	require.NoError(t, os.WriteFile(path, []byte("m0 1\nm1 2\n"), 0o644))

	cfg := Config{MachineListFile: path}
	places, err := BuildPlaces(cfg, nil)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "m0", places[0].Name)
	assert.Equal(t, 1, places[0].MaxIssue)
	assert.Equal(t, "m1", places[1].Name)
	assert.Equal(t, 2, places[1].MaxIssue)
}

package machinelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "machines")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_DefaultsToSingleIssue(t *testing.T) {
	path := writeTemp(t, "m0\nm1\n")

	places, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "m0", places[0].Name)
	assert.Equal(t, 1, places[0].MaxIssue)
	assert.Equal(t, 0, places[0].Index)
	assert.Equal(t, "m1", places[1].Name)
	assert.Equal(t, 1, places[1].Index)
}

func TestLoad_ParsesTrailingCapacity(t *testing.T) {
	path := writeTemp(t, "m0 1\nm1 2\n")

	places, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, 1, places[0].MaxIssue)
	assert.Equal(t, 2, places[1].MaxIssue)
}

func TestLoad_SkipsCommentsAndBlankLines(t *testing.T) {
	path := writeTemp(t, "# comment\n\nm0 3\n   \n")

	places, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "m0", places[0].Name)
	assert.Equal(t, 3, places[0].MaxIssue)
}

func TestLoad_MalformedCapacityWarnsAndDefaultsToOne(t *testing.T) {
	path := writeTemp(t, "m0 notanumber\n")

	var warned string
	places, err := Load(path, func(format string, args ...any) {
		warned += format
		_ = args
	})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, 1, places[0].MaxIssue)
	assert.NotEmpty(t, warned, "a malformed trailing integer must warn, not fail the load")
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	assert.Error(t, err)
}

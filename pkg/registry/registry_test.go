package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, `{
		"version": "1.0.0",
		"activities": [
			{"id": "fetch-ranking-results", "taskType": "fetch-ranking-results", "category": "visibility"},
			{"id": "aggregate-visibility", "taskType": "aggregate-visibility", "category": "visibility"}
		]
	}`)

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 2)

	activity, ok := reg.FindByTaskType("aggregate-visibility")
	require.True(t, ok)
	assert.Equal(t, "visibility", activity.Category)

	_, ok = reg.FindByTaskType("unknown-task")
	assert.False(t, ok)
}

func TestLoadRegistry_DuplicateTaskType(t *testing.T) {
	path := writeRegistry(t, `{
		"activities": [
			{"id": "a", "taskType": "aggregate-visibility"},
			{"id": "b", "taskType": "aggregate-visibility"}
		]
	}`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task type")
}

func TestLoadRegistry_MissingTaskType(t *testing.T) {
	path := writeRegistry(t, `{"activities": [{"id": "a"}]}`)

	_, err := LoadRegistry(path)
	require.Error(t, err)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

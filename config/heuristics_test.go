package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHeuristics(t *testing.T) {
	h := DefaultHeuristics()

	assert.NotEmpty(t, h.ApplyAllow)
	assert.NotEmpty(t, h.ApplyDeny)
	assert.NotEmpty(t, h.SuccessKeywords)
	assert.NotEmpty(t, h.FailureKeywords)
	assert.Equal(t, 2, h.MinSuccessScore)
}

func TestLoadHeuristics_EmptyPathReturnsDefaults(t *testing.T) {
	h, err := LoadHeuristics("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHeuristics(), h)
}

func TestLoadHeuristics_OverlayReplacesOnlyGivenTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heuristics.yaml")
	content := []byte(`
apply_allow:
  - "bewerben"
  - "apply"
min_success_score: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	h, err := LoadHeuristics(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"bewerben", "apply"}, h.ApplyAllow)
	assert.Equal(t, 3, h.MinSuccessScore)
	// Tables absent from the file keep their defaults.
	assert.Equal(t, DefaultHeuristics().SuccessKeywords, h.SuccessKeywords)
	assert.Equal(t, DefaultHeuristics().SubmitDeny, h.SubmitDeny)
}

func TestLoadHeuristics_MissingFile(t *testing.T) {
	_, err := LoadHeuristics("/nonexistent/heuristics.yaml")
	assert.Error(t, err)
}

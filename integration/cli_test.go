//go:build basic

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateCommand checks acceptance and rejection without a service.
func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	archive := writeDemoZip(t, dir)
	env := envFor(map[string]string{"history-backend": "none"})

	out, err := runArchflow(t, dir, env, "validate", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "demo.zip")
	assert.Contains(t, out, "ready for upload")

	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain text"), 0o600))
	out, err = runArchflow(t, dir, env, "validate", notes)
	require.Error(t, err)
	assert.Contains(t, out, "Please select a ZIP file containing your codebase")
}

// TestAnalyzeHistoryAndGraphFlow runs analyze against a fake service, then
// reads the result back from a SQLite history.
func TestAnalyzeHistoryAndGraphFlow(t *testing.T) {
	srv := newFakeService(t)
	dir := t.TempDir()
	archive := writeDemoZip(t, dir)
	env := envFor(map[string]string{
		"server":             srv.URL,
		"history-backend":    "sqlite",
		"history-db-connect": filepath.Join(dir, "history.db"),
		"no-progress":        "true",
		"color":              "no",
	})

	out, err := runArchflow(t, dir, env, "analyze", archive, "--export", "--export-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Project: "+demoProjectID)
	assert.Contains(t, out, "Existing features (1)")
	assert.Contains(t, out, "Missing features (1)")
	assert.Contains(t, out, "Workflow graph: 2 nodes, 1 edges")
	assert.FileExists(t, filepath.Join(dir, "workflow-graph-proj-1.png"))

	out, err = runArchflow(t, dir, env, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "demo.zip")
	assert.Contains(t, out, "Projects analyzed: 1")

	out, err = runArchflow(t, dir, env, "history", "show", demoProjectID, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, demoProjectID)
	assert.Contains(t, out, `"analysis"`)

	out, err = runArchflow(t, dir, env, "graph", demoProjectID, "--from-history")
	require.NoError(t, err)
	assert.Contains(t, out, "Basic Flow")

	out, err = runArchflow(t, dir, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "History Backend: sqlite")

	_, err = runArchflow(t, dir, env, "history", "clear")
	require.NoError(t, err)

	out, err = runArchflow(t, dir, env, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses yet")
}

// TestRetryUnknownProject surfaces the service error after retries.
func TestRetryUnknownProject(t *testing.T) {
	srv := newFakeService(t)
	dir := t.TempDir()
	env := envFor(map[string]string{
		"server":          srv.URL,
		"history-backend": "none",
		"no-progress":     "true",
	})

	out, err := runArchflow(t, dir, env, "retry", "missing-project")
	require.Error(t, err)
	assert.Contains(t, out, "retry failed")
}

// TestVersionCommand prints build details.
func TestVersionCommand(t *testing.T) {
	out, err := runArchflow(t, t.TempDir(), nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "archflow CLI")
}

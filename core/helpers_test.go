package core

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/iocache"
	"github.com/huangsam/archflow/schema"
	"github.com/stretchr/testify/require"
)

// demoAnalysisBody is a service response with one existing feature, no
// missing features and one workflow suggestion.
const demoAnalysisBody = `{
  "analysis": {
    "existing_features": [{"name": "api", "description": "REST endpoints", "confidence": 0.9, "files": ["app.py"]}],
    "missing_features": [],
    "technology_stack": {"languages": ["Python"], "frameworks": ["Flask"], "databases": []},
    "workflow_suggestions": [{"id": "basic_flow", "name": "Basic Flow"}],
    "project_type": "web_application"
  },
  "graph": {
    "nodes": [
      {"id": "existing_0", "label": "Api", "position": {"x": 400, "y": 100}, "icon": "✅", "category": "existing"},
      {"id": "workflow_0", "label": "Basic Flow", "position": {"x": 100, "y": 300}, "category": "workflow"}
    ],
    "edges": [
      {"id": "e1", "source": "existing_0", "target": "workflow_0", "label": "Enables"}
    ]
  }
}`

func ok(body string) schema.RawResponse {
	return schema.RawResponse{Status: 200, Body: []byte(body)}
}

func status(code int, body string) schema.RawResponse {
	return schema.RawResponse{Status: code, Body: []byte(body)}
}

func demoArchive() schema.Archive {
	return schema.Archive{Name: "demo.zip", Size: 128, MediaType: schema.ZipMediaType}
}

// newMemoryStore returns a slot store backed by process memory.
func newMemoryStore(t *testing.T) contract.SlotStore {
	t.Helper()
	store, err := iocache.NewSlotStore("archflow_test", schema.NoneBackend, "")
	require.NoError(t, err)
	return store
}

// writeZip creates a small zip archive at dir/name.
func writeZip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("app.py")
	require.NoError(t, err)
	_, err = w.Write([]byte("print('hello')\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

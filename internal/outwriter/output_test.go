package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func sampleResponse() schema.GenerateResponse {
	return schema.GenerateResponse{
		ProjectID: "p1",
		Analysis: &schema.AnalysisResult{
			ExistingFeatures: []schema.Feature{
				{Name: "api", Description: "REST endpoints", Confidence: 0.9, Files: []string{"app.py"}},
			},
			MissingFeatures: []schema.Feature{
				{Name: "docs", Priority: schema.LowPriority, Implementation: "Add a README"},
				{Name: "auth", Priority: schema.UrgentPriority, Description: "No login"},
			},
			TechnologyStack:     schema.TechnologyStack{Languages: []string{"Python"}},
			WorkflowSuggestions: []json.RawMessage{json.RawMessage(`{"id":"basic_flow","name":"Basic Flow"}`)},
			ProjectType:         "web_application",
			Recommendations:     []string{"Add tests"},
		},
		Graph: &schema.WorkflowGraph{
			Nodes: []schema.GraphNode{{ID: "a", Label: "API"}, {ID: "b", Label: "Auth", Category: "missing", Position: schema.Position{X: 10, Y: 20}}},
			Edges: []schema.GraphEdge{{ID: "e1", Source: "a", Target: "b", Label: "Suggests"}},
		},
	}
}

func fileConfig(t *testing.T, mode schema.OutputMode) *contract.Config {
	t.Helper()
	return &contract.Config{
		Output:         mode,
		OutputFile:     filepath.Join(t.TempDir(), "out"),
		Width:          120,
		HistoryBackend: schema.SQLiteBackend,
	}
}

func readOutput(t *testing.T, cfg *contract.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	return string(data)
}

func TestWriteAnalysisResultsText(t *testing.T) {
	cfg := fileConfig(t, schema.TextOut)
	require.NoError(t, WriteAnalysisResults(sampleResponse(), cfg, 1500*time.Millisecond))

	out := readOutput(t, cfg)
	assert.Contains(t, out, "Project: p1 (web_application)")
	assert.Contains(t, out, "Languages: Python | Frameworks: - | Databases: -")
	assert.Contains(t, out, "Existing features (1)")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Missing features (2)")
	assert.Contains(t, out, "1. Basic Flow")
	assert.Contains(t, out, "- Add tests")
	assert.Contains(t, out, "Workflow graph: 2 nodes, 1 edges")
	assert.Contains(t, out, "Analysis completed in 1.5s")
	assert.Less(t, strings.Index(out, "urgent"), strings.Index(out, "low"), "urgent features are listed first")
}

func TestWriteAnalysisResultsJSON(t *testing.T) {
	cfg := fileConfig(t, schema.JSONOut)
	require.NoError(t, WriteAnalysisResults(sampleResponse(), cfg, time.Second))

	var decoded schema.GenerateResponse
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
	assert.Equal(t, "p1", decoded.ProjectID)
	require.NotNil(t, decoded.Analysis)
	assert.Len(t, decoded.Analysis.MissingFeatures, 2)
}

func TestWriteAnalysisResultsCSV(t *testing.T) {
	cfg := fileConfig(t, schema.CSVOut)
	require.NoError(t, WriteAnalysisResults(sampleResponse(), cfg, time.Second))

	records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, analysisCSVHeader, records[0])
	assert.Equal(t, []string{"p1", "existing", "1", "api", "0.90", "", "REST endpoints", "app.py"}, records[1])
	assert.Equal(t, "auth", records[2][3])
	assert.Equal(t, "urgent", records[2][5])
	assert.Equal(t, "docs", records[3][3])
}

func TestWriteAnalysisTextWithoutResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisText(&buf, "p9", nil, nil, &contract.Config{Width: 80}))
	assert.Equal(t, "Project p9 has no analysis\n", buf.String())
}

func sampleHistory() []schema.HistoryEntry {
	resp := sampleResponse()
	now := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)
	return []schema.HistoryEntry{
		schema.NewHistoryEntry("p1", "demo.zip", now, resp.Analysis, resp.Graph),
		schema.NewHistoryEntry("p0", "", now.Add(-time.Hour), nil, nil),
	}
}

func TestWriteHistoryResults(t *testing.T) {
	entries := sampleHistory()
	summary := schema.SummarizeHistory(entries)

	t.Run("text", func(t *testing.T) {
		cfg := fileConfig(t, schema.TextOut)
		require.NoError(t, WriteHistoryResults(entries, summary, cfg))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "demo.zip")
		assert.Contains(t, out, schema.UnknownProjectName)
		assert.Contains(t, out, "Projects analyzed: 2 | Features detected: 1 | Improvements suggested: 2 | Workflows suggested: 1")
	})

	t.Run("json", func(t *testing.T) {
		cfg := fileConfig(t, schema.JSONOut)
		require.NoError(t, WriteHistoryResults(entries, summary, cfg))
		var decoded historyListing
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
		assert.Equal(t, summary, decoded.Summary)
		require.Len(t, decoded.Entries, 2)
		assert.Equal(t, "2025-05-04T12:00:00Z", decoded.Entries[0].Timestamp)
	})

	t.Run("csv", func(t *testing.T) {
		cfg := fileConfig(t, schema.CSVOut)
		require.NoError(t, WriteHistoryResults(entries, summary, cfg))
		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"1", "p1", "demo.zip", "2025-05-04T12:00:00Z", "completed", "1", "2", "1"}, records[1])
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeHistoryTable(&buf, nil, schema.HistorySummary{}))
		assert.Contains(t, buf.String(), "No analyses yet")
	})
}

func TestWriteHistoryEntry(t *testing.T) {
	cfg := fileConfig(t, schema.TextOut)
	require.NoError(t, WriteHistoryEntry(sampleHistory()[0], cfg))
	out := readOutput(t, cfg)
	assert.Contains(t, out, "demo.zip analyzed at 2025-05-04T12:00:00Z")
	assert.Contains(t, out, "Existing features (1)")
}

func TestNewValidationReport(t *testing.T) {
	archive := schema.Archive{Name: "notes.txt", Size: 10, MediaType: "text/plain"}

	report := NewValidationReport(archive, &schema.ValidationError{Name: "notes.txt", Reason: schema.ArchiveRejectedReason})
	assert.False(t, report.Valid)
	assert.Equal(t, schema.ArchiveRejectedReason, report.Reason)

	report = NewValidationReport(archive, errors.New("stat failed"))
	assert.Equal(t, "stat failed", report.Reason)

	report = NewValidationReport(schema.Archive{Name: "demo.zip", Size: 2048, MediaType: schema.ZipMediaType}, nil)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Reason)
}

func TestWriteValidation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeValidationText(&buf, ValidationReport{Name: "demo.zip", Size: 2048, MediaType: schema.ZipMediaType, Valid: true}))
	assert.Equal(t, "✅ demo.zip (2.0 KiB, application/zip) is ready for upload\n", buf.String())

	cfg := fileConfig(t, schema.CSVOut)
	require.NoError(t, WriteValidation(ValidationReport{Name: "x.txt", Size: 1, Reason: "nope"}, cfg))
	assert.Equal(t, "name,size,media_type,valid,reason\nx.txt,1,,false,nope\n", readOutput(t, cfg))
}

func TestWriteGraphResults(t *testing.T) {
	g := sampleResponse().Graph

	t.Run("text", func(t *testing.T) {
		cfg := fileConfig(t, schema.TextOut)
		require.NoError(t, WriteGraphResults(g, "/tmp/workflow-graph-p1.png", cfg))
		out := readOutput(t, cfg)
		assert.Contains(t, out, "Auth")
		assert.Contains(t, out, "Suggests")
		assert.Contains(t, out, "Workflow graph: 2 nodes, 1 edges")
		assert.Contains(t, out, "Exported graph to /tmp/workflow-graph-p1.png")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := fileConfig(t, schema.CSVOut)
		require.NoError(t, WriteGraphResults(g, "", cfg))
		records, err := csv.NewReader(strings.NewReader(readOutput(t, cfg))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"node", "b", "Auth", "", "", "missing", "10", "20"}, records[2])
		assert.Equal(t, []string{"edge", "e1", "Suggests", "a", "b", "", "", ""}, records[3])
	})

	t.Run("json", func(t *testing.T) {
		cfg := fileConfig(t, schema.JSONOut)
		require.NoError(t, WriteGraphResults(g, "out.png", cfg))
		var decoded graphOutput
		require.NoError(t, json.Unmarshal([]byte(readOutput(t, cfg)), &decoded))
		assert.Equal(t, "out.png", decoded.ExportPath)
		assert.Len(t, decoded.Graph.Nodes, 2)
	})

	t.Run("nil graph", func(t *testing.T) {
		assert.Error(t, WriteGraphResults(nil, "", fileConfig(t, schema.TextOut)))
	})
}

func TestGetMaxTableTextWidth(t *testing.T) {
	assert.Equal(t, 20, GetMaxTableTextWidth(&contract.Config{Width: 70}))
	assert.Equal(t, 40, GetMaxTableTextWidth(&contract.Config{Width: 100}))
	assert.Equal(t, 80, GetMaxTableTextWidth(&contract.Config{Width: 300}))
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf)
	assert.False(t, bar.interactive)

	bar.Update(schema.UploadStage, 10)
	bar.Update(schema.UploadStage, 50)
	assert.Empty(t, buf.String(), "non-interactive output only reports finished stages")

	bar.Update(schema.UploadStage, 100)
	bar.Update(schema.UploadStage, 100)
	assert.Equal(t, "upload   [##############################] 100%\n", buf.String())
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "analysis [###############...............]  50%", renderBar(schema.AnalysisStage, 50))
	assert.Equal(t, "upload   [..............................]   0%", renderBar(schema.UploadStage, -5))
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/archflow/core"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.ServiceClient
	mgr     contract.StoreManager
}

// analysisOutput is an analysis with the optional PNG path.
type analysisOutput struct {
	schema.GenerateResponse
	ExportPath string `json:"export_path,omitempty"`
}

// historyOutput lists history without the analysis and graph payloads.
type historyOutput struct {
	Summary schema.HistorySummary `json:"summary"`
	Entries []historyItem         `json:"entries"`
}

type historyItem struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Timestamp string               `json:"timestamp"`
	Features  schema.FeatureCounts `json:"features"`
}

func (h *toolHandler) handleValidateArchive(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("archive_path", "")
	if path == "" {
		return mcp.NewToolResultError("archive_path is required"), nil
	}

	report, err := core.GetValidateResults(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}
	return jsonResult(report), nil
}

func (h *toolHandler) handleAnalyzeArchive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.ArchivePath = request.GetString("archive_path", "")
	if cfg.ArchivePath == "" {
		return mcp.NewToolResultError("archive_path is required"), nil
	}

	resp, err := core.GetAnalyzeResults(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	out := analysisOutput{GenerateResponse: resp}
	if request.GetBool("export", false) {
		path, err := core.ExportGraph(resp.Graph, resp.ProjectID, cfg.ExportDir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("graph export failed: %v", err)), nil
		}
		out.ExportPath = path
	}
	return jsonResult(out), nil
}

func (h *toolHandler) handleListHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, summary := core.GetHistoryResults(ctx, h.mgr)

	out := historyOutput{Summary: summary, Entries: make([]historyItem, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, historyItem{
			ID:        e.ID,
			Name:      e.Name,
			Timestamp: e.Timestamp.Format(contract.DateTimeFormat),
			Features:  e.Features,
		})
	}
	return jsonResult(out), nil
}

func (h *toolHandler) handleGetHistoryEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := request.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	snap, err := core.GetHistoryEntryResults(ctx, projectID, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}
	return jsonResult(snap), nil
}

func (h *toolHandler) handleFetchGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.graphConfig(request)
	if cfg.ProjectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}

	g, err := core.GetGraphResults(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph fetch failed: %v", err)), nil
	}
	return jsonResult(g), nil
}

func (h *toolHandler) handleExportGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.graphConfig(request)
	if cfg.ProjectID == "" {
		return mcp.NewToolResultError("project_id is required"), nil
	}
	if dir := request.GetString("export_dir", ""); dir != "" {
		cfg.ExportDir = dir
	}

	g, err := core.GetGraphResults(core.WithSuppressHeader(ctx), cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph fetch failed: %v", err)), nil
	}
	path, err := core.ExportGraph(g, cfg.ProjectID, cfg.ExportDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph export failed: %v", err)), nil
	}
	return jsonResult(map[string]string{"project_id": cfg.ProjectID, "path": path}), nil
}

func (h *toolHandler) graphConfig(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	cfg.ProjectID = request.GetString("project_id", "")
	cfg.FromHistory = request.GetBool("from_history", false)
	return cfg
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the archflow MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Archflow Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		mgr:     mgr,
	}

	// --- 1. Tool: validate_archive ---
	s.AddTool(mcp.NewTool("validate_archive",
		mcp.WithDescription("Check whether a local file would be accepted for upload. No network call is made."),
		mcp.WithString("archive_path", mcp.Description("Path to the archive on disk."), mcp.Required()),
	), h.handleValidateArchive)

	// --- 2. Tool: analyze_archive ---
	s.AddTool(mcp.NewTool("analyze_archive",
		mcp.WithDescription("Upload a ZIP archive, run the feature analysis and record it in history."),
		mcp.WithString("archive_path", mcp.Description("Path to the ZIP archive containing the codebase."), mcp.Required()),
		mcp.WithBoolean("export", mcp.Description("Also write the workflow graph as a PNG.")),
	), h.handleAnalyzeArchive)

	// --- 3. Tool: list_history ---
	s.AddTool(mcp.NewTool("list_history",
		mcp.WithDescription("List the most recent analyses with their feature counts and totals."),
	), h.handleListHistory)

	// --- 4. Tool: get_history_entry ---
	s.AddTool(mcp.NewTool("get_history_entry",
		mcp.WithDescription("Return a stored analysis in full without contacting the service."),
		mcp.WithString("project_id", mcp.Description("Project id from list_history."), mcp.Required()),
	), h.handleGetHistoryEntry)

	// --- 5. Tool: fetch_graph ---
	s.AddTool(mcp.NewTool("fetch_graph",
		mcp.WithDescription("Fetch the workflow graph of an analyzed project."),
		mcp.WithString("project_id", mcp.Description("Project id issued on upload."), mcp.Required()),
		mcp.WithBoolean("from_history", mcp.Description("Read the graph from history instead of the service.")),
	), h.handleFetchGraph)

	// --- 6. Tool: export_graph ---
	s.AddTool(mcp.NewTool("export_graph",
		mcp.WithDescription("Render the workflow graph of a project to a PNG file."),
		mcp.WithString("project_id", mcp.Description("Project id issued on upload."), mcp.Required()),
		mcp.WithBoolean("from_history", mcp.Description("Read the graph from history instead of the service.")),
		mcp.WithString("export_dir", mcp.Description("Directory for the PNG (defaults to the configured export dir).")),
	), h.handleExportGraph)

	return s
}

// StartMCPServer starts the archflow MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, client, mgr)
	return server.ServeStdio(s)
}

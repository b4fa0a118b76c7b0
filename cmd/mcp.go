package cmd

import (
	"github.com/huangsam/archflow/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the archflow MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents validate archives,
run analyses, browse history and export workflow graphs via standard tools.

Tools:
  validate_archive  - Check an archive without uploading it
  analyze_archive   - Run the full upload and analysis flow
  list_history      - List recent analyses with totals
  get_history_entry - Rehydrate a stored analysis
  fetch_graph       - Load the workflow graph of a project
  export_graph      - Render the workflow graph to a PNG file`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, args []string) error {
		// Progress bars are suppressed by the tool handlers so stdio
		// stays reserved for the protocol.
		return sharedSetup(rootCtx, args, nil)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, serviceClient, storeManager)
	},
}

package cmd

import (
	"fmt"

	"github.com/huangsam/archflow/core"
	"github.com/spf13/cobra"
)

// graphCmd prints or exports the workflow graph of a project.
var graphCmd = &cobra.Command{
	Use:   "graph <project-id>",
	Short: "Show the workflow graph of a project",
	Long: `Load the workflow graph of a project and list its nodes and edges.

By default the graph is fetched from the service. Use --from-history to read
the copy stored with the last analysis instead, which works offline.

With --export the graph is laid out and written to --export-dir as
workflow-graph-<project-id>.png.

Examples:
  # Print the graph from the service
  archflow graph 3f2b9c

  # Export the stored graph without network access
  archflow graph 3f2b9c --from-history --export --export-dir ./graphs`,
	Args:    cobra.ExactArgs(1),
	PreRunE: projectSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteGraph(rootCtx, cfg, serviceClient, storeManager); err != nil {
			return fmt.Errorf("graph failed: %w", err)
		}
		return nil
	},
}

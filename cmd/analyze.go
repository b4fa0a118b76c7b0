package cmd

import (
	"fmt"

	"github.com/huangsam/archflow/core"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the full validate, upload and analyze flow.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <archive.zip>",
	Short: "Upload a zipped codebase and report its features and workflows",
	Long: `Validate a .zip archive, upload it to the analysis service, and wait for the result.

The flow runs in three stages:
  upload   - the archive is sent as multipart form data
  analyze  - the service builds feature and workflow insights
  done     - results are printed and recorded in history

Analysis requests rejected by the service are retried twice with a one second delay.
The latest 5 analyses are kept in the history store.

Output includes:
- Detected technology stack and project type
- Existing features with confidence scores
- Missing features ordered by priority
- Suggested workflows and recommendations
- Workflow graph size

Examples:
  # Analyze a project
  archflow analyze project.zip

  # Analyze and write the workflow graph as a PNG
  archflow analyze project.zip --export --export-dir ./graphs

  # Point at a remote service and emit JSON
  archflow analyze project.zip --server https://archflow.example.com --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: archiveSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteAnalyze(rootCtx, cfg, serviceClient, storeManager); err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		return nil
	},
}

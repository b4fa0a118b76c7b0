package cmd

import (
	"fmt"

	"github.com/huangsam/archflow/core"
	"github.com/spf13/cobra"
)

// retryCmd re-runs analysis for a project that was already uploaded.
var retryCmd = &cobra.Command{
	Use:   "retry <project-id>",
	Short: "Re-run analysis for an uploaded project",
	Long: `Ask the service to analyze a project again without uploading it.

Use this when:
- A previous analysis exhausted its retries
- The service was restarted or upgraded
- You want a fresh graph for a project in history

The project id is printed by analyze and listed by 'archflow history list'.

Examples:
  # Retry the analysis of a project
  archflow retry 3f2b9c

  # Retry and export the refreshed graph
  archflow retry 3f2b9c --export`,
	Args:    cobra.ExactArgs(1),
	PreRunE: projectSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteRetry(rootCtx, cfg, serviceClient, storeManager); err != nil {
			return fmt.Errorf("retry failed: %w", err)
		}
		return nil
	},
}

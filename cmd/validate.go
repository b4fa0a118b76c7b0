package cmd

import (
	"github.com/huangsam/archflow/core"
	"github.com/spf13/cobra"
)

// validateSetupWrapper prepares the validate command. No history store is
// opened because nothing is uploaded or recorded.
func validateSetupWrapper(_ *cobra.Command, args []string) error {
	return configSetup(rootCtx, args, bindArchive)
}

// validateCmd checks an archive locally.
var validateCmd = &cobra.Command{
	Use:   "validate <archive.zip>",
	Short: "Check that an archive is acceptable for upload",
	Long: `Run the same checks as analyze without contacting the service.

An archive is accepted when either:
- Its content is detected as application/zip
- Its name ends with .zip (case-insensitive)

Exits with a non-zero status when the archive is rejected.

Examples:
  # Check before uploading
  archflow validate project.zip

  # Machine-readable report
  archflow validate project.zip --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteValidate(rootCtx, cfg)
	},
}

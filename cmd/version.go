package cmd

import (
	"runtime"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of archflow.",
	Long: `Display version information including build details.

Shows:
- Release version and commit
- Build timestamp and Go runtime
- Default service URL and history capacity

Include this output when reporting bugs.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("archflow CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
		cmd.Printf("  Service: %s (upload %s)\n", contract.DefaultServerURL, schema.UploadPath)
		cmd.Printf("  History: %d entries\n", schema.HistoryCapacity)
	},
}

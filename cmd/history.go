package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/archflow/core"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/iocache"
	"github.com/huangsam/archflow/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	backend := schema.DatabaseBackend(backendStr)
	if backendStr == "" {
		backend = schema.SQLiteBackend
	}

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on stored analyses.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of recent analyses",
	Long: `Manage the history of recently completed analyses.

Archflow keeps the latest 5 analyses, newest first. Each entry stores the full
analysis result and workflow graph, so they can be shown again offline.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (in-memory)

Subcommands:
  list    - Show recent analyses with summary statistics
  show    - Print a stored analysis again
  clear   - Remove the stored history
  status  - Show backend statistics and connection info
  export  - Export history to Parquet for analytics
  migrate - Run database schema migrations

Examples:
  # List recent analyses
  archflow history list

  # Show one analysis again
  archflow history show 3f2b9c`,
}

// historyListCmd lists the stored analyses.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analyses with summary statistics",
	Long: `List stored analyses newest first, followed by totals across all of them.

Totals include:
- Projects analyzed
- Features detected
- Improvements suggested
- Workflows suggested

Examples:
  archflow history list
  archflow history list --output csv --output-file history.csv`,
	Args:    cobra.NoArgs,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteHistoryList(rootCtx, cfg, storeManager)
	},
}

// historyShowCmd prints one stored analysis.
var historyShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Print a stored analysis without contacting the service",
	Long: `Print the full result of a stored analysis.

The entry is read from history, so this works while the service is offline.
Use 'archflow graph <project-id> --from-history --export' to render its graph.

Examples:
  archflow history show 3f2b9c
  archflow history show 3f2b9c --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: projectSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteHistoryShow(rootCtx, cfg, storeManager)
	},
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored analyses",
	Long: `Delete the stored analysis history.

By default the history slot is emptied. With --purge the backing storage is removed:
For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history table

WARNING: This action cannot be undone. Consider exporting first.

Examples:
  # Export before clearing
  archflow history export --output-file backup
  archflow history clear

  # Drop the MySQL table (set connection string via env variable)
  ARCHFLOW_HISTORY_BACKEND=mysql ARCHFLOW_HISTORY_DB_CONNECT="..." archflow history clear --purge`,
	Args:    cobra.NoArgs,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if !viper.GetBool("purge") {
			return core.ExecuteHistoryClear(rootCtx, storeManager)
		}
		dbFilePath := contract.GetHistoryDBFilePath()
		if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
			dbFilePath = cfg.HistoryDBConnect
		}
		iocache.CloseStores()
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to purge history: %w", err)
		}
		fmt.Println("History purged successfully.")
		return nil
	},
}

// historyStatusCmd shows history store status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history backend statistics and connection details",
	Long: `Show detailed information about the history store.

Displays:
- Backend type and connection status
- Total number of stored slots
- Last and oldest write timestamps
- Table size

Examples:
  archflow history status`,
	Args:    cobra.NoArgs,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := storeManager.GetHistoryStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		iocache.PrintSlotStatus(os.Stdout, status)
		return nil
	},
}

// historyExportCmd exports history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history to Parquet for BI tools and analytics",
	Long: `Export stored analyses to Parquet format for use with analytics tools.

Exports two datasets:
- Analyses - one row per stored analysis with feature and graph counts
- Features - one row per existing or missing feature

Requires: --output-file parameter

Examples:
  # Writes archflow.analyses.parquet and archflow.features.parquet
  archflow history export --output-file archflow

  # Use with DuckDB for analysis
  duckdb -c "SELECT * FROM read_parquet('archflow.analyses.parquet')"`,
	Args:    cobra.NoArgs,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		entries, _ := core.GetHistoryResults(rootCtx, storeManager)
		if err := iocache.ExecuteHistoryExport(entries, cfg.OutputFile, os.Stdout); err != nil {
			return fmt.Errorf("failed to export history: %w", err)
		}
		return nil
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Target versions:
  -1 - Migrate to the latest version (default)
   0 - Roll back all migrations
   N - Migrate up or down to version N

Examples:
  # Migrate to the latest schema
  archflow history migrate

  # Roll back everything
  archflow history migrate --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: historyMigrateSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion, os.Stdout); err != nil {
			return fmt.Errorf("failed to migrate history: %w", err)
		}
		return nil
	},
}

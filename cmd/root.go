package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/archflow/internal/apiclient"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/iocache"
	"github.com/huangsam/archflow/internal/logging"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Setup attaches the logger to it.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager

// serviceClient talks to the ingest and analysis service.
var serviceClient contract.ServiceClient

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "archflow",
	Short: "Turn a zipped codebase into feature and workflow insights.",
	Long: `Archflow uploads a zipped codebase to an analysis service and reports
which features it already has, which ones are missing, and how its workflows connect.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigPaths points viper at --config, or at .archflow.yaml in the
// working directory or $HOME.
func setConfigPaths() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".archflow") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigPaths()

	// Set environment variable prefix
	viper.SetEnvPrefix("ARCHFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Set defaults in Viper
	viper.SetDefault("server", contract.DefaultServerURL)
	viper.SetDefault("timeout", contract.DefaultTimeout.String())
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("export-dir", ".")
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("color", "yes")
}

// argBinder copies a positional argument into the raw input.
type argBinder func(in *contract.ConfigRawInput, arg string)

func bindArchive(in *contract.ConfigRawInput, arg string) { in.ArchivePathStr = arg }

func bindProject(in *contract.ConfigRawInput, arg string) { in.ProjectIDStr = arg }

// configSetup unmarshals config, runs validation and builds the logger and
// service client. It does not touch persistence.
func configSetup(ctx context.Context, args []string, bind argBinder) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if bind != nil && len(args) == 1 {
		bind(input, args[0])
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	logger := logging.New("archflow", logging.Options{Level: cfg.LogLevel, NoColor: !cfg.UseColors})
	rootCtx = logger.WithContext(ctx)
	color.NoColor = !cfg.UseColors

	telemetry.RegisterMetrics()
	serviceClient = apiclient.New(cfg.ServerURL, cfg.Timeout, logger)
	return nil
}

// sharedSetup runs configSetup and initializes the history store.
func sharedSetup(ctx context.Context, args []string, bind argBinder) error {
	if err := configSetup(ctx, args, bind); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// archiveSetupWrapper prepares commands that take an archive path.
func archiveSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args, bindArchive)
}

// projectSetupWrapper prepares commands that take a project id.
func projectSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args, bindProject)
}

// historySetupWrapper prepares commands that only need stored history.
func historySetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args, nil)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigPaths()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}

// FlushMetrics writes collected metrics when --metrics-file is set.
func FlushMetrics() error {
	return telemetry.WriteTextfile(cfg.MetricsFile)
}

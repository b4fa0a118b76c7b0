package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// Default values for configuration.
const (
	DefaultServerURL = "http://localhost:5000"
	DefaultTimeout   = 5 * time.Minute
	DefaultLogLevel  = "warn"
	MaxTimeout       = time.Hour
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	ArchivePath string
	ProjectID   string

	ServerURL string
	Timeout   time.Duration

	Output      schema.OutputMode
	OutputFile  string
	ExportDir   string
	Export      bool
	FromHistory bool // Read the graph from history instead of the service
	Width       int  // Terminal width override (0 = auto-detect)

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel    zerolog.Level
	MetricsFile string

	UseColors    bool // Enable colored labels in table output
	ShowProgress bool // Draw progress bars on stderr
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	ArchivePathStr string
	ProjectIDStr   string

	// --- Fields from rootCmd.PersistentFlags() ---
	Server           string `mapstructure:"server"`
	Timeout          string `mapstructure:"timeout"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	ExportDir        string `mapstructure:"export-dir"`
	Width            int    `mapstructure:"width"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	LogLevel         string `mapstructure:"log-level"`
	MetricsFile      string `mapstructure:"metrics-file"`
	Color            string `mapstructure:"color"`
	NoProgress       bool   `mapstructure:"no-progress"`

	// --- Fields from analyzeCmd.Flags() and graphCmd.Flags() ---
	Export      bool `mapstructure:"export"`
	FromHistory bool `mapstructure:"from-history"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateServer(cfg, input); err != nil {
		return err
	}
	if err := validateHistoryBackend(cfg, input); err != nil {
		return err
	}
	return nil
}

// validateSimpleInputs processes and validates all non-network fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.ArchivePath = input.ArchivePathStr
	cfg.ProjectID = strings.TrimSpace(input.ProjectIDStr)
	cfg.OutputFile = input.OutputFile
	cfg.ExportDir = input.ExportDir
	cfg.Export = input.Export
	cfg.FromHistory = input.FromHistory
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile
	cfg.ShowProgress = !input.NoProgress

	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	levelStr := input.LogLevel
	if levelStr == "" {
		levelStr = DefaultLogLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
	}
	cfg.LogLevel = level

	return nil
}

// validateServer parses the service base URL and request timeout.
func validateServer(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimRight(strings.TrimSpace(input.Server), "/")
	if raw == "" {
		raw = DefaultServerURL
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", input.Server, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https (received %q)", input.Server)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server URL must include a host (received %q)", input.Server)
	}
	cfg.ServerURL = raw

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		timeout, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", input.Timeout, err)
		}
		if timeout <= 0 || timeout > MaxTimeout {
			return fmt.Errorf("timeout must be greater than 0 and cannot exceed %s (received %s)", MaxTimeout, timeout)
		}
		cfg.Timeout = timeout
	}
	return nil
}

// validateHistoryBackend validates the history backend configuration.
func validateHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	backend := input.HistoryBackend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

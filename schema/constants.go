package schema

import "time"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// FlowState represents the stage of an analysis flow.
	FlowState string

	// Priority represents the urgency of a missing feature.
	Priority string

	// DatabaseBackend represents the database backend for history slots.
	DatabaseBackend string

	// Stage names the phase a progress value belongs to.
	Stage string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All flow states supported.
const (
	IdleState      FlowState = "idle" // default
	UploadingState FlowState = "uploading"
	AnalyzingState FlowState = "analyzing"
	CompleteState  FlowState = "complete"
)

// All feature priorities supported.
const (
	LowPriority    Priority = "low"
	MediumPriority Priority = "medium"
	HighPriority   Priority = "high"
	UrgentPriority Priority = "urgent"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Progress stages.
const (
	UploadStage   Stage = "upload"
	AnalysisStage Stage = "analysis"
)

// Remote service contract.
const (
	UploadPath         = "/api/upload"
	GenerateGraphPath  = "/api/generate-graph/"
	FetchGraphPath     = "/api/graph/"
	UploadFieldName    = "project"
	RequestIDHeader    = "X-Request-ID"
	ZipMediaType       = "application/zip"
	ZipExtension       = ".zip"
	UnknownProjectName = "Unknown Project"
	CompletedStatus    = "completed"
)

// History constants.
const (
	HistoryKey      = "recentAnalyses"
	HistoryCapacity = 5
)

// Progress and retry tuning.
const (
	ProgressCeiling      = 90
	ProgressDone         = 100
	UploadTickInterval   = 200 * time.Millisecond
	UploadTickStep       = 10
	AnalysisTickInterval = 300 * time.Millisecond
	AnalysisTickStep     = 5
	MaxAnalysisRetries   = 2
	AnalysisRetryDelay   = time.Second
)

// ArchiveRejectedReason is shown when a non-zip file is selected.
const ArchiveRejectedReason = "Please select a ZIP file containing your codebase"

// ValidOutputModes is the set of accepted output formats.
var ValidOutputModes = map[OutputMode]any{
	CSVOut:  nil,
	TextOut: nil,
	JSONOut: nil,
}

// ValidDatabaseBackends is the set of accepted history backends.
var ValidDatabaseBackends = map[DatabaseBackend]any{
	SQLiteBackend:     nil,
	MySQLBackend:      nil,
	PostgreSQLBackend: nil,
	NoneBackend:       nil,
}

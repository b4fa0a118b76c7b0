// Package schema has models, constants and typed errors for all parts of archflow.
package schema

import (
	"encoding/json"
	"time"
)

// Archive is a local source archive selected for upload.
// It only lives for the duration of validation and upload.
type Archive struct {
	Name      string // Display name, usually the base file name
	Size      int64  // Size in bytes
	MediaType string // Declared or sniffed media type
	Path      string // Location on disk; empty for in-memory archives
}

// Feature is a single capability detected in (or suggested for) a project.
type Feature struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Confidence     float64  `json:"confidence,omitempty" validate:"gte=0,lte=1"`
	Priority       Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Implementation string   `json:"implementation,omitempty"`
	Files          []string `json:"files,omitempty"`
}

// TechnologyStack lists the technologies detected by the analysis service.
type TechnologyStack struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Databases  []string `json:"databases"`
}

// AnalysisResult is the structured description of a project produced by the
// remote analysis service. Workflow suggestions are kept opaque.
type AnalysisResult struct {
	ProjectOverview     json.RawMessage   `json:"project_overview,omitempty"`
	ExistingFeatures    []Feature         `json:"existing_features" validate:"dive"`
	MissingFeatures     []Feature         `json:"missing_features" validate:"dive"`
	TechnologyStack     TechnologyStack   `json:"technology_stack"`
	WorkflowSuggestions []json.RawMessage `json:"workflow_suggestions,omitempty"`
	ComplexityAnalysis  json.RawMessage   `json:"complexity_analysis,omitempty"`
	ProjectType         string            `json:"project_type,omitempty"`
	Recommendations     []string          `json:"recommendations,omitempty"`
}

// GenerateResponse is the body returned by a successful analysis call.
// Pointers distinguish a missing section from an empty one.
type GenerateResponse struct {
	ProjectID string          `json:"project_id,omitempty"`
	Analysis  *AnalysisResult `json:"analysis"`
	Graph     *WorkflowGraph  `json:"graph"`
	Message   string          `json:"message,omitempty"`
}

// UploadResponse is the body returned by a successful upload call.
type UploadResponse struct {
	ProjectID string `json:"project_id"`
	Message   string `json:"message,omitempty"`
}

// RawResponse is an HTTP response reduced to what the pipeline inspects.
type RawResponse struct {
	Status int
	Body   []byte
}

// OK reports whether the status is in the 2xx range.
func (r RawResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Snapshot is a read-only view of an orchestrator at a point in time.
type Snapshot struct {
	State            FlowState       `json:"state"`
	ArchiveName      string          `json:"archive_name,omitempty"`
	ProjectID        string          `json:"project_id,omitempty"`
	UploadProgress   int             `json:"upload_progress"`
	AnalysisProgress int             `json:"analysis_progress"`
	Result           *AnalysisResult `json:"analysis,omitempty"`
	Graph            *WorkflowGraph  `json:"graph,omitempty"`
	Error            string          `json:"error,omitempty"`
	CanRetry         bool            `json:"can_retry"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

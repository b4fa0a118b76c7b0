// Package parquet provides data structures and functions for exporting analysis
// history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/archflow/schema"
	"github.com/parquet-go/parquet-go"
)

// Feature kinds stored in the features file.
const (
	ExistingKind = "existing"
	MissingKind  = "missing"
)

// AnalysisRow is one completed analysis from the history.
type AnalysisRow struct {
	// ProjectID is the opaque identifier issued by the ingest service
	ProjectID string `parquet:"project_id,snappy"`

	// Name is the archive display name
	Name string `parquet:"name,snappy"`

	// CompletedAt is when the analysis finished
	CompletedAt time.Time `parquet:"completed_at,snappy"`

	Status string `parquet:"status,snappy"`

	// ProjectType is the service's classification (nullable)
	ProjectType *string `parquet:"project_type,optional,snappy"`

	ExistingFeatures int32 `parquet:"existing_features,snappy"`
	MissingFeatures  int32 `parquet:"missing_features,snappy"`
	Workflows        int32 `parquet:"workflows,snappy"`
	TotalNodes       int32 `parquet:"total_nodes,snappy"`
	TotalEdges       int32 `parquet:"total_edges,snappy"`

	// Languages is a comma-separated list (nullable)
	Languages *string `parquet:"languages,optional,snappy"`

	// Frameworks is a comma-separated list (nullable)
	Frameworks *string `parquet:"frameworks,optional,snappy"`
}

// FeatureRow is one existing or missing feature of an analysis.
type FeatureRow struct {
	ProjectID      string   `parquet:"project_id,snappy"`
	Kind           string   `parquet:"kind,snappy"`
	Name           string   `parquet:"name,snappy"`
	Description    *string  `parquet:"description,optional,snappy"`
	Confidence     *float64 `parquet:"confidence,optional,snappy"`
	Priority       *string  `parquet:"priority,optional,snappy"`
	Implementation *string  `parquet:"implementation,optional,snappy"`
	FileCount      int32    `parquet:"file_count,snappy"`
}

// WriteAnalysesParquet writes analysis rows to a Parquet file.
func WriteAnalysesParquet(data []AnalysisRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFeaturesParquet writes feature rows to a Parquet file.
func WriteFeaturesParquet(data []FeatureRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using struct schema inference. The footer is
// written on Close, so its error is reported.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertHistoryEntries converts history entries to analysis rows.
func ConvertHistoryEntries(entries []schema.HistoryEntry) []AnalysisRow {
	result := make([]AnalysisRow, len(entries))
	for i, entry := range entries {
		row := AnalysisRow{
			ProjectID:        entry.ID,
			Name:             entry.Name,
			CompletedAt:      entry.Timestamp,
			Status:           entry.Status,
			ExistingFeatures: int32(entry.Features.Existing),
			MissingFeatures:  int32(entry.Features.Missing),
			Workflows:        int32(entry.Features.Workflows),
		}
		if entry.Analysis != nil {
			row.ProjectType = optionalString(entry.Analysis.ProjectType)
			row.Languages = optionalString(strings.Join(entry.Analysis.TechnologyStack.Languages, ","))
			row.Frameworks = optionalString(strings.Join(entry.Analysis.TechnologyStack.Frameworks, ","))
		}
		if entry.Graph != nil {
			row.TotalNodes = int32(len(entry.Graph.Nodes))
			row.TotalEdges = int32(len(entry.Graph.Edges))
		}
		result[i] = row
	}
	return result
}

// ConvertFeatureRows flattens the features of every history entry.
func ConvertFeatureRows(entries []schema.HistoryEntry) []FeatureRow {
	var result []FeatureRow
	for _, entry := range entries {
		if entry.Analysis == nil {
			continue
		}
		for _, f := range entry.Analysis.ExistingFeatures {
			confidence := f.Confidence
			result = append(result, FeatureRow{
				ProjectID:   entry.ID,
				Kind:        ExistingKind,
				Name:        f.Name,
				Description: optionalString(f.Description),
				Confidence:  &confidence,
				FileCount:   int32(len(f.Files)),
			})
		}
		for _, f := range entry.Analysis.MissingFeatures {
			result = append(result, FeatureRow{
				ProjectID:      entry.ID,
				Kind:           MissingKind,
				Name:           f.Name,
				Description:    optionalString(f.Description),
				Priority:       optionalString(string(f.Priority)),
				Implementation: optionalString(f.Implementation),
				FileCount:      int32(len(f.Files)),
			})
		}
	}
	return result
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/archflow/internal/parquet"
	"github.com/huangsam/archflow/schema"
)

// ExecuteHistoryExport writes the recent analyses and their features to Parquet files.
func ExecuteHistoryExport(entries []schema.HistoryEntry, outputFile string, w io.Writer) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	if len(entries) == 0 {
		return errors.New("no analysis history found to export")
	}

	_, _ = fmt.Fprintf(w, "Total analyses: %d\n", len(entries))

	analysisRows := parquet.ConvertHistoryEntries(entries)
	featureRows := parquet.ConvertFeatureRows(entries)

	analysesFile := outputFile + ".analyses.parquet"
	if err := parquet.WriteAnalysesParquet(analysisRows, analysesFile); err != nil {
		return fmt.Errorf("failed to write analyses: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analyses to: %s\n", len(analysisRows), analysesFile)

	featuresFile := outputFile + ".features.parquet"
	if err := parquet.WriteFeaturesParquet(featureRows, featuresFile); err != nil {
		return fmt.Errorf("failed to write features: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d feature records to: %s\n", len(featureRows), featuresFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")

	return nil
}

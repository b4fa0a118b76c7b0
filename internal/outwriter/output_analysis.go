package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// analysisCSVHeader is shared by analysis and history-entry CSV output.
var analysisCSVHeader = []string{"project_id", "kind", "rank", "name", "confidence", "priority", "description", "files"}

// WriteAnalysisResults outputs a finished analysis, dispatching based on the output format configured.
func WriteAnalysisResults(resp schema.GenerateResponse, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, resp)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, resp.ProjectID, resp.Analysis)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeAnalysisText(w, resp.ProjectID, resp.Analysis, resp.Graph, cfg); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Analysis completed in %v. History backend: %s\n", duration.Round(time.Millisecond), cfg.HistoryBackend)
			return err
		}, "Wrote table")
	}
	return nil
}

// writeAnalysisText writes the human-readable report of an analysis.
func writeAnalysisText(w io.Writer, projectID string, result *schema.AnalysisResult, graph *schema.WorkflowGraph, cfg *contract.Config) error {
	if result == nil {
		_, err := fmt.Fprintf(w, "Project %s has no analysis\n", projectID)
		return err
	}

	projectType := result.ProjectType
	if projectType == "" {
		projectType = "unknown"
	}
	if _, err := fmt.Fprintf(w, "Project: %s (%s)\n", projectID, projectType); err != nil {
		return err
	}
	stack := result.TechnologyStack
	if _, err := fmt.Fprintf(w, "Languages: %s | Frameworks: %s | Databases: %s\n\n",
		schema.JoinOrDash(stack.Languages), schema.JoinOrDash(stack.Frameworks), schema.JoinOrDash(stack.Databases)); err != nil {
		return err
	}

	if err := writeExistingTable(w, result.ExistingFeatures, cfg); err != nil {
		return err
	}
	if err := writeMissingTable(w, result.MissingFeatures, cfg); err != nil {
		return err
	}

	if len(result.WorkflowSuggestions) > 0 {
		if _, err := fmt.Fprintln(w, "Suggested workflows:"); err != nil {
			return err
		}
		for i, raw := range result.WorkflowSuggestions {
			name := schema.WorkflowName(raw)
			if name == "" {
				name = "(unnamed)"
			}
			if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, name); err != nil {
				return err
			}
		}
	}
	if len(result.Recommendations) > 0 {
		if _, err := fmt.Fprintln(w, "Recommendations:"); err != nil {
			return err
		}
		for _, rec := range result.Recommendations {
			if _, err := fmt.Fprintf(w, "  - %s\n", rec); err != nil {
				return err
			}
		}
	}

	if graph != nil {
		if _, err := fmt.Fprintf(w, "Workflow graph: %d nodes, %d edges\n", len(graph.Nodes), len(graph.Edges)); err != nil {
			return err
		}
	}
	return nil
}

// writeExistingTable renders detected features with their confidence.
func writeExistingTable(w io.Writer, features []schema.Feature, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "Existing features (%d)\n", len(features)); err != nil {
		return err
	}
	if len(features) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Feature", "Confidence", "Label", "Files", "Description"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := GetMaxTableTextWidth(cfg)
	var data [][]string
	for i, f := range features {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			f.Name,
			formatConfidence(f.Confidence),
			contract.GetColorLabel(f.Confidence),
			strconv.Itoa(len(f.Files)),
			contract.TruncateText(f.Description, maxWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeMissingTable renders suggested features, most urgent first.
func writeMissingTable(w io.Writer, features []schema.Feature, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "Missing features (%d)\n", len(features)); err != nil {
		return err
	}
	if len(features) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Feature", "Priority", "Implementation"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := GetMaxTableTextWidth(cfg)
	var data [][]string
	for i, f := range sortByPriority(features) {
		impl := f.Implementation
		if impl == "" {
			impl = f.Description
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			f.Name,
			contract.GetPriorityLabel(f.Priority),
			contract.TruncateText(impl, maxWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// sortByPriority returns a copy of features ordered by urgency.
// Features of equal priority keep the service's order.
func sortByPriority(features []schema.Feature) []schema.Feature {
	sorted := slices.Clone(features)
	slices.SortStableFunc(sorted, func(a, b schema.Feature) int {
		return schema.PriorityRank(a.Priority) - schema.PriorityRank(b.Priority)
	})
	return sorted
}

// writeAnalysisCSV writes one record per feature.
func writeAnalysisCSV(w io.Writer, projectID string, result *schema.AnalysisResult) error {
	return writeCSVWithHeader(w, analysisCSVHeader, func(csvWriter *csv.Writer) error {
		return writeFeatureRecords(csvWriter, projectID, result)
	})
}

func writeFeatureRecords(csvWriter *csv.Writer, projectID string, result *schema.AnalysisResult) error {
	if result == nil {
		return nil
	}
	for i, f := range result.ExistingFeatures {
		rec := []string{
			projectID,
			"existing",
			strconv.Itoa(i + 1),
			f.Name,
			formatConfidence(f.Confidence),
			"",
			f.Description,
			strings.Join(f.Files, ";"),
		}
		if err := csvWriter.Write(rec); err != nil {
			return fmt.Errorf("error writing CSV record: %w", err)
		}
	}
	for i, f := range sortByPriority(result.MissingFeatures) {
		rec := []string{
			projectID,
			"missing",
			strconv.Itoa(i + 1),
			f.Name,
			"",
			string(f.Priority),
			f.Description,
			strings.Join(f.Files, ";"),
		}
		if err := csvWriter.Write(rec); err != nil {
			return fmt.Errorf("error writing CSV record: %w", err)
		}
	}
	return nil
}

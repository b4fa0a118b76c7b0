package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// historyListing is the JSON shape of the history list.
type historyListing struct {
	Summary schema.HistorySummary `json:"summary"`
	Entries []historyRow          `json:"entries"`
}

// historyRow is a history entry without its analysis and graph payloads.
type historyRow struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Timestamp string               `json:"timestamp"`
	Status    string               `json:"status"`
	Features  schema.FeatureCounts `json:"features"`
}

// WriteHistoryResults outputs the recent analyses and their totals.
func WriteHistoryResults(entries []schema.HistoryEntry, summary schema.HistorySummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, historyListing{Summary: summary, Entries: toHistoryRows(entries)})
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, entries)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, entries, summary)
		}, "Wrote table")
	}
	return nil
}

// WriteHistoryEntry outputs one stored analysis in full.
func WriteHistoryEntry(entry schema.HistoryEntry, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, entry)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, entry.ID, entry.Analysis)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "%s analyzed at %s\n", entry.Name, entry.Timestamp.Format(contract.DateTimeFormat)); err != nil {
				return err
			}
			return writeAnalysisText(w, entry.ID, entry.Analysis, entry.Graph, cfg)
		}, "Wrote table")
	}
}

func toHistoryRows(entries []schema.HistoryEntry) []historyRow {
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyRow{
			ID:        e.ID,
			Name:      e.Name,
			Timestamp: e.Timestamp.Format(contract.DateTimeFormat),
			Status:    e.Status,
			Features:  e.Features,
		})
	}
	return rows
}

// writeHistoryTable renders the history with the quick stats beneath it.
func writeHistoryTable(w io.Writer, entries []schema.HistoryEntry, summary schema.HistorySummary) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No analyses yet. Run 'archflow analyze <archive.zip>' to get started.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Project ID", "Name", "Completed", "Existing", "Missing", "Workflows"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, e := range entries {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			e.ID,
			e.Name,
			e.Timestamp.Format(contract.DateTimeFormat),
			strconv.Itoa(e.Features.Existing),
			strconv.Itoa(e.Features.Missing),
			strconv.Itoa(e.Features.Workflows),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Projects analyzed: %d | Features detected: %d | Improvements suggested: %d | Workflows suggested: %d\n",
		summary.Projects, summary.Features, summary.Improvements, summary.Workflows)
	return err
}

func writeHistoryCSV(w io.Writer, entries []schema.HistoryEntry) error {
	header := []string{"rank", "project_id", "name", "timestamp", "status", "existing", "missing", "workflows"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for i, e := range entries {
			rec := []string{
				strconv.Itoa(i + 1),
				e.ID,
				e.Name,
				e.Timestamp.Format(contract.DateTimeFormat),
				e.Status,
				strconv.Itoa(e.Features.Existing),
				strconv.Itoa(e.Features.Missing),
				strconv.Itoa(e.Features.Workflows),
			}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record: %w", err)
			}
		}
		return nil
	})
}

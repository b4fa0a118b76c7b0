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

// graphOutput is the JSON shape of a graph listing.
type graphOutput struct {
	Graph      *schema.WorkflowGraph `json:"graph"`
	ExportPath string                `json:"export_path,omitempty"`
}

// WriteGraphResults outputs the nodes and edges of a graph. exportPath is
// the PNG written for it, if any.
func WriteGraphResults(g *schema.WorkflowGraph, exportPath string, cfg *contract.Config) error {
	if g == nil {
		return fmt.Errorf("no graph to display")
	}
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, graphOutput{Graph: g, ExportPath: exportPath})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGraphCSV(w, g)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeGraphTable(w, g); err != nil {
				return err
			}
			if exportPath != "" {
				_, err := fmt.Fprintf(w, "Exported graph to %s\n", exportPath)
				return err
			}
			return nil
		}, "Wrote table")
	}
}

func writeGraphTable(w io.Writer, g *schema.WorkflowGraph) error {
	nodes := tablewriter.NewWriter(w)
	nodes.Header([]string{"Node", "Label", "Category", "X", "Y"})
	nodes.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var nodeData [][]string
	for _, n := range g.Nodes {
		nodeData = append(nodeData, []string{
			n.ID,
			n.Label,
			n.Category,
			strconv.FormatFloat(n.Position.X, 'f', 0, 64),
			strconv.FormatFloat(n.Position.Y, 'f', 0, 64),
		})
	}
	if err := nodes.Bulk(nodeData); err != nil {
		return err
	}
	if err := nodes.Render(); err != nil {
		return err
	}

	if len(g.Edges) > 0 {
		edges := tablewriter.NewWriter(w)
		edges.Header([]string{"Edge", "Source", "Target", "Label"})
		var edgeData [][]string
		for _, e := range g.Edges {
			edgeData = append(edgeData, []string{e.ID, e.Source, e.Target, e.Label})
		}
		if err := edges.Bulk(edgeData); err != nil {
			return err
		}
		if err := edges.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Workflow graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	return err
}

func writeGraphCSV(w io.Writer, g *schema.WorkflowGraph) error {
	header := []string{"element", "id", "label", "source", "target", "category", "x", "y"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, n := range g.Nodes {
			rec := []string{
				"node", n.ID, n.Label, "", "", n.Category,
				strconv.FormatFloat(n.Position.X, 'f', -1, 64),
				strconv.FormatFloat(n.Position.Y, 'f', -1, 64),
			}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record: %w", err)
			}
		}
		for _, e := range g.Edges {
			if err := csvWriter.Write([]string{"edge", e.ID, e.Label, e.Source, e.Target, "", "", ""}); err != nil {
				return fmt.Errorf("error writing CSV record: %w", err)
			}
		}
		return nil
	})
}

// Package core has the archive analysis pipeline: validation, upload,
// supervised analysis, history and graph export.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/archflow/core/graph"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/outwriter"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// ExecutorFunc defines the function signature for executing service-backed commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) error

// ExecuteAnalyze runs the full flow for cfg.ArchivePath and prints the result.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) error {
	start := time.Now()
	resp, err := GetAnalyzeResults(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.WriteAnalysisResults(resp, cfg, time.Since(start)); err != nil {
		return err
	}
	return maybeExport(cfg, resp.Graph, resp.ProjectID)
}

// GetAnalyzeResults validates, uploads and analyzes cfg.ArchivePath.
// The completed analysis is recorded in history.
func GetAnalyzeResults(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) (schema.GenerateResponse, error) {
	archive, err := ArchiveFromFile(cfg.ArchivePath)
	if err != nil {
		return schema.GenerateResponse{}, err
	}
	orch := newOrchestrator(ctx, cfg, client, openHistory(ctx, mgr))
	defer func() { _ = orch.Close() }()
	return orch.Start(ctx, archive)
}

// ExecuteRetry re-runs analysis for an already uploaded project and prints the result.
func ExecuteRetry(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) error {
	start := time.Now()
	resp, err := GetRetryResults(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.WriteAnalysisResults(resp, cfg, time.Since(start)); err != nil {
		return err
	}
	return maybeExport(cfg, resp.Graph, resp.ProjectID)
}

// GetRetryResults enters Analyzing directly for cfg.ProjectID. The history
// name of the project is reused when known.
func GetRetryResults(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) (schema.GenerateResponse, error) {
	if cfg.ProjectID == "" {
		return schema.GenerateResponse{}, schema.ErrRestartRequired
	}
	hs := openHistory(ctx, mgr)
	name := ""
	if entry, err := hs.Get(cfg.ProjectID); err == nil {
		name = entry.Name
	}
	orch := newOrchestrator(ctx, cfg, client, hs)
	defer func() { _ = orch.Close() }()
	return orch.Resume(ctx, cfg.ProjectID, name)
}

// ExecuteValidate checks cfg.ArchivePath without uploading it. A rejected
// archive is reported and returned as an error.
func ExecuteValidate(_ context.Context, cfg *contract.Config) error {
	report, err := GetValidateResults(cfg.ArchivePath)
	if err != nil {
		return err
	}
	if err := outwriter.WriteValidation(report, cfg); err != nil {
		return err
	}
	if !report.Valid {
		return &schema.ValidationError{Name: report.Name, Reason: report.Reason}
	}
	return nil
}

// GetValidateResults describes the file at path and whether it would be accepted.
// Only a missing or unreadable file is an error.
func GetValidateResults(path string) (outwriter.ValidationReport, error) {
	archive, err := ArchiveFromFile(path)
	if err != nil {
		return outwriter.ValidationReport{}, err
	}
	return outwriter.NewValidationReport(archive, ValidateArchive(archive)), nil
}

// ExecuteGraph prints the graph of cfg.ProjectID and exports it when requested.
func ExecuteGraph(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) error {
	g, err := GetGraphResults(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	exportPath := ""
	if cfg.Export {
		if exportPath, err = ExportGraph(g, cfg.ProjectID, cfg.ExportDir); err != nil {
			return err
		}
	}
	return outwriter.WriteGraphResults(g, exportPath, cfg)
}

// GetGraphResults loads the graph of cfg.ProjectID from history when
// cfg.FromHistory is set, otherwise from the service. Either way it must
// satisfy the graph contract.
func GetGraphResults(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, mgr contract.StoreManager) (*schema.WorkflowGraph, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}

	var g *schema.WorkflowGraph
	if cfg.FromHistory {
		entry, err := openHistory(ctx, mgr).Get(cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		g = entry.Graph
	} else {
		fetched, err := FetchGraph(ctx, client, cfg.ProjectID)
		if err != nil {
			return nil, err
		}
		g = fetched
	}

	if g == nil {
		return nil, graph.ErrNoGraph
	}
	if err := graph.Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// ExportGraph adapts, mounts and rasterizes g, then writes the PNG into dir.
// projectID names the file when the graph metadata has no usable id.
func ExportGraph(g *schema.WorkflowGraph, projectID, dir string) (string, error) {
	r, err := graph.Adapt(g)
	if err != nil {
		return "", err
	}
	scene, err := graph.Mount(r)
	if err != nil {
		return "", err
	}
	if schema.ExportFilename(scene.ProjectID) == schema.ExportFilename("") {
		scene.ProjectID = projectID
	}
	img, err := graph.Export(scene)
	if err != nil {
		return "", err
	}
	return graph.WriteFile(dir, img)
}

// ExecuteHistoryList prints the recent analyses and their totals.
func ExecuteHistoryList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	entries, summary := GetHistoryResults(ctx, mgr)
	return outwriter.WriteHistoryResults(entries, summary, cfg)
}

// GetHistoryResults returns the recent analyses, most recent first.
func GetHistoryResults(ctx context.Context, mgr contract.StoreManager) ([]schema.HistoryEntry, schema.HistorySummary) {
	hs := openHistory(ctx, mgr)
	return hs.List(), hs.Summarize()
}

// ExecuteHistoryShow prints one stored analysis.
func ExecuteHistoryShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	entry, err := openHistory(ctx, mgr).Get(cfg.ProjectID)
	if err != nil {
		return err
	}
	return outwriter.WriteHistoryEntry(entry, cfg)
}

// GetHistoryEntryResults rehydrates a stored analysis into a completed flow
// snapshot. No request is sent to the service.
func GetHistoryEntryResults(ctx context.Context, projectID string, mgr contract.StoreManager) (schema.Snapshot, error) {
	hs := openHistory(ctx, mgr)
	entry, err := hs.Get(projectID)
	if err != nil {
		return schema.Snapshot{}, err
	}
	orch := NewOrchestrator(nil, hs, WithLogger(*zerolog.Ctx(ctx)))
	defer func() { _ = orch.Close() }()
	if err := orch.View(entry); err != nil {
		return schema.Snapshot{}, err
	}
	return orch.Snapshot(), nil
}

// ExecuteHistoryClear empties the stored history.
func ExecuteHistoryClear(ctx context.Context, mgr contract.StoreManager) error {
	if err := openHistory(ctx, mgr).Clear(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stderr, "🧹 Analysis history cleared")
	return nil
}

// newOrchestrator wires an orchestrator to the stored history and, for
// interactive runs, a progress bar on stderr.
func newOrchestrator(ctx context.Context, cfg *contract.Config, client contract.ServiceClient, hs *HistoryStore) *Orchestrator {
	log := *zerolog.Ctx(ctx)
	opts := []Option{WithLogger(log)}
	if cfg.ShowProgress && !shouldSuppressHeader(ctx) {
		bar := outwriter.NewProgressBar(os.Stderr)
		opts = append(opts, WithProgressObserver(bar.Update))
	}
	return NewOrchestrator(client, hs, opts...)
}

// openHistory loads the history kept in the manager's history slot.
func openHistory(ctx context.Context, mgr contract.StoreManager) *HistoryStore {
	var store contract.SlotStore
	if mgr != nil {
		store = mgr.GetHistoryStore()
	}
	return NewHistoryStore(store, *zerolog.Ctx(ctx))
}

// maybeExport writes the graph PNG when cfg.Export is set.
func maybeExport(cfg *contract.Config, g *schema.WorkflowGraph, projectID string) error {
	if !cfg.Export {
		return nil
	}
	path, err := ExportGraph(g, projectID, cfg.ExportDir)
	if err != nil {
		return fmt.Errorf("graph export failed: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Exported graph to %s\n", path)
	return nil
}

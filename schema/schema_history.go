package schema

import "time"

// FeatureCounts summarizes an analysis for history listings.
type FeatureCounts struct {
	Existing  int `json:"existing"`
	Missing   int `json:"missing"`
	Workflows int `json:"workflows"`
}

// HistoryEntry is a completed analysis kept in the recent history.
// The JSON layout matches the payload already stored by the web dashboard.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Analysis  *AnalysisResult `json:"analysis"`
	Graph     *WorkflowGraph  `json:"graph"`
	Status    string          `json:"status"`
	Features  FeatureCounts   `json:"features"`
}

// CountFeatures derives the feature counts of a result. A nil result counts as empty.
func CountFeatures(result *AnalysisResult) FeatureCounts {
	if result == nil {
		return FeatureCounts{}
	}
	return FeatureCounts{
		Existing:  len(result.ExistingFeatures),
		Missing:   len(result.MissingFeatures),
		Workflows: len(result.WorkflowSuggestions),
	}
}

// NewHistoryEntry builds a completed history entry for a finished analysis.
func NewHistoryEntry(projectID, name string, now time.Time, result *AnalysisResult, graph *WorkflowGraph) HistoryEntry {
	if name == "" {
		name = UnknownProjectName
	}
	return HistoryEntry{
		ID:        projectID,
		Name:      name,
		Timestamp: now.UTC(),
		Analysis:  result,
		Graph:     graph,
		Status:    CompletedStatus,
		Features:  CountFeatures(result),
	}
}

// HistorySummary totals a history the way the dashboard quick stats do.
type HistorySummary struct {
	Projects     int `json:"projects_analyzed"`
	Features     int `json:"features_detected"`
	Improvements int `json:"improvements_suggested"`
	Workflows    int `json:"workflows_suggested"`
}

// SummarizeHistory adds up the feature counts of entries.
func SummarizeHistory(entries []HistoryEntry) HistorySummary {
	s := HistorySummary{Projects: len(entries)}
	for _, e := range entries {
		s.Features += e.Features.Existing
		s.Improvements += e.Features.Missing
		s.Workflows += e.Features.Workflows
	}
	return s
}

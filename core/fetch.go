package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
)

// FetchGraph retrieves the last graph the service generated for projectID.
// It is a single attempt: a non-2xx status is an AnalysisError.
func FetchGraph(ctx context.Context, client contract.ServiceClient, projectID string) (*schema.WorkflowGraph, error) {
	resp, err := client.FetchGraph(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("graph fetch failed: %w", err)
	}
	if !resp.OK() {
		return nil, &schema.AnalysisError{Status: resp.Status, Body: string(resp.Body), Attempts: 1}
	}

	var g schema.WorkflowGraph
	if err := json.Unmarshal(resp.Body, &g); err != nil {
		return nil, &schema.MalformedResponseError{Stage: schema.AnalysisStage, Detail: "graph is not valid JSON"}
	}
	return &g, nil
}

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// validate checks feature ranges declared on schema types.
var validate = validator.New()

// Analyzer supervises the remote analysis call with bounded retry.
type Analyzer struct {
	client     contract.ServiceClient
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewAnalyzer creates an analyzer with the default retry policy.
func NewAnalyzer(client contract.ServiceClient, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		client:     client,
		maxRetries: schema.MaxAnalysisRetries,
		retryDelay: schema.AnalysisRetryDelay,
		log:        log,
	}
}

// Analyze requests analysis for projectID. Server errors are reissued after a
// fixed delay while retries remain; client errors and exhausted retries fail
// with an AnalysisError. A single progress spans every attempt and is
// completed once the outcome is final. A progress stopped by its owner ends
// the loop with ErrFlowAbandoned before the next attempt.
func (a *Analyzer) Analyze(ctx context.Context, projectID string, progress *Progress) (schema.GenerateResponse, error) {
	defer progress.Complete()

	attempts := 0
	for {
		attempts++
		a.log.Info().Str("project_id", projectID).Int("attempt", attempts).Msg("starting analysis")

		resp, err := a.client.GenerateGraph(ctx, projectID)
		if err != nil {
			return schema.GenerateResponse{}, fmt.Errorf("analysis failed: %w", err)
		}
		if resp.OK() {
			return parseGenerateResponse(projectID, resp.Body)
		}

		if resp.Status < 500 || attempts > a.maxRetries {
			return schema.GenerateResponse{}, &schema.AnalysisError{Status: resp.Status, Body: string(resp.Body), Attempts: attempts}
		}

		a.log.Warn().Int("status", resp.Status).Int("retry", attempts).Int("max_retries", a.maxRetries).Msg("retrying analysis")
		telemetry.RecordRetry()

		timer := time.NewTimer(a.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return schema.GenerateResponse{}, ctx.Err()
		case <-progress.Done():
			timer.Stop()
			return schema.GenerateResponse{}, schema.ErrFlowAbandoned
		case <-timer.C:
		}
		if progress.Stopped() {
			return schema.GenerateResponse{}, schema.ErrFlowAbandoned
		}
	}
}

// parseGenerateResponse enforces that both analysis and graph are present and
// that feature fields are in range.
func parseGenerateResponse(projectID string, body []byte) (schema.GenerateResponse, error) {
	var payload schema.GenerateResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return schema.GenerateResponse{}, &schema.MalformedResponseError{Stage: schema.AnalysisStage, Detail: "body is not valid JSON"}
	}
	if payload.Analysis == nil || payload.Graph == nil {
		return schema.GenerateResponse{}, &schema.MalformedResponseError{Stage: schema.AnalysisStage, Detail: "analysis and graph are required"}
	}
	if err := validate.Struct(payload.Analysis); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return schema.GenerateResponse{}, &schema.MalformedResponseError{
				Stage:  schema.AnalysisStage,
				Detail: fmt.Sprintf("%s fails %s", verrs[0].Namespace(), verrs[0].Tag()),
			}
		}
		return schema.GenerateResponse{}, &schema.MalformedResponseError{Stage: schema.AnalysisStage, Detail: err.Error()}
	}
	if payload.ProjectID == "" {
		payload.ProjectID = projectID
	}
	return payload, nil
}

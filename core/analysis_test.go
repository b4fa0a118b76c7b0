package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzer(client contract.ServiceClient) *Analyzer {
	a := NewAnalyzer(client, zerolog.Nop())
	a.retryDelay = time.Millisecond
	return a
}

func TestAnalyzeSuccess(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(ok(demoAnalysisBody), nil).Once()

	progress := StartProgress(time.Hour, schema.AnalysisTickStep, nil)
	resp, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", progress)
	require.NoError(t, err)

	assert.Equal(t, "p1", resp.ProjectID, "project id is filled in from the request")
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, schema.FeatureCounts{Existing: 1, Missing: 0, Workflows: 1}, schema.CountFeatures(resp.Analysis))
	require.NotNil(t, resp.Graph)
	assert.Len(t, resp.Graph.Nodes, 2)
	assert.Equal(t, schema.ProgressDone, progress.Value())
	client.AssertExpectations(t)
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(status(503, "busy"), nil)

	progress := StartProgress(time.Hour, schema.AnalysisTickStep, nil)
	_, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", progress)

	var aerr *schema.AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 503, aerr.Status)
	assert.Equal(t, "busy", aerr.Body)
	assert.Equal(t, schema.MaxAnalysisRetries+1, aerr.Attempts)
	assert.True(t, aerr.Retryable())
	client.AssertNumberOfCalls(t, "GenerateGraph", 3)
	assert.Equal(t, schema.ProgressDone, progress.Value())
}

func TestAnalyzeRecoversAfterRetry(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(status(500, "oops"), nil).Once()
	client.On("GenerateGraph", mock.Anything, "p1").Return(ok(demoAnalysisBody), nil).Once()

	resp, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", nil)
	require.NoError(t, err)
	assert.NotNil(t, resp.Analysis)
	client.AssertNumberOfCalls(t, "GenerateGraph", 2)
}

func TestAnalyzeDoesNotRetryClientErrors(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(status(404, "unknown project"), nil)

	_, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", nil)

	var aerr *schema.AnalysisError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 1, aerr.Attempts)
	assert.False(t, aerr.Retryable())
	assert.Equal(t, "Analysis failed with status 404 after 1 attempt(s): unknown project", err.Error())
	client.AssertNumberOfCalls(t, "GenerateGraph", 1)
}

func TestAnalyzeTransportErrorIsNotRetried(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(schema.RawResponse{}, errors.New("connection reset"))

	_, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", nil)
	assert.EqualError(t, err, "analysis failed: connection reset")
	client.AssertNumberOfCalls(t, "GenerateGraph", 1)
}

func TestAnalyzeMalformedResponses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"not json", "<html>", "body is not valid JSON"},
		{"graph missing", `{"analysis": {"existing_features": [], "missing_features": []}}`, "analysis and graph are required"},
		{"analysis missing", `{"graph": {"nodes": [], "edges": []}}`, "analysis and graph are required"},
		{
			"confidence out of range",
			`{"analysis": {"existing_features": [{"name": "api", "confidence": 1.5}]}, "graph": {"nodes": [], "edges": []}}`,
			"Confidence fails lte",
		},
		{
			"unknown priority",
			`{"analysis": {"missing_features": [{"name": "auth", "priority": "someday"}]}, "graph": {"nodes": [], "edges": []}}`,
			"Priority fails oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(contract.MockServiceClient)
			client.On("GenerateGraph", mock.Anything, "p1").Return(ok(tt.body), nil)

			_, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", nil)

			var merr *schema.MalformedResponseError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, schema.AnalysisStage, merr.Stage)
			assert.Contains(t, merr.Detail, tt.detail)
			client.AssertNumberOfCalls(t, "GenerateGraph", 1)
		})
	}
}

func TestAnalyzeAcceptsMixedCasePriority(t *testing.T) {
	body := `{"analysis": {"missing_features": [{"name": "auth", "priority": "High"}, {"name": "ci", "priority": "URGENT"}]}, "graph": {"nodes": [], "edges": []}}`
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(ok(body), nil)

	resp, err := newTestAnalyzer(client).Analyze(context.Background(), "p1", nil)
	require.NoError(t, err)
	require.Len(t, resp.Analysis.MissingFeatures, 2)
	assert.Equal(t, schema.HighPriority, resp.Analysis.MissingFeatures[0].Priority)
	assert.Equal(t, schema.UrgentPriority, resp.Analysis.MissingFeatures[1].Priority)
}

func TestAnalyzeStopsWhenProgressIsStopped(t *testing.T) {
	progress := StartProgress(time.Hour, schema.AnalysisTickStep, nil)
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").
		Run(func(mock.Arguments) { progress.Stop() }).
		Return(status(502, "bad gateway"), nil)

	a := newTestAnalyzer(client)
	a.retryDelay = time.Hour
	_, err := a.Analyze(context.Background(), "p1", progress)

	assert.ErrorIs(t, err, schema.ErrFlowAbandoned)
	client.AssertNumberOfCalls(t, "GenerateGraph", 1)
}

func TestAnalyzeHonorsContextDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").
		Run(func(mock.Arguments) { cancel() }).
		Return(status(500, "oops"), nil)

	a := newTestAnalyzer(client)
	a.retryDelay = time.Hour
	_, err := a.Analyze(ctx, "p1", nil)

	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNumberOfCalls(t, "GenerateGraph", 1)
}

func TestFetchGraph(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := new(contract.MockServiceClient)
		client.On("FetchGraph", mock.Anything, "p1").Return(ok(`{"nodes": [{"id": "a", "label": "A"}], "edges": []}`), nil)

		g, err := FetchGraph(context.Background(), client, "p1")
		require.NoError(t, err)
		require.Len(t, g.Nodes, 1)
		assert.Equal(t, "A", g.Nodes[0].Label)
	})

	t.Run("not found", func(t *testing.T) {
		client := new(contract.MockServiceClient)
		client.On("FetchGraph", mock.Anything, "p1").Return(status(404, "Graph not found"), nil)

		_, err := FetchGraph(context.Background(), client, "p1")
		var aerr *schema.AnalysisError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, 1, aerr.Attempts)
	})

	t.Run("malformed", func(t *testing.T) {
		client := new(contract.MockServiceClient)
		client.On("FetchGraph", mock.Anything, "p1").Return(ok("[1,2"), nil)

		_, err := FetchGraph(context.Background(), client, "p1")
		var merr *schema.MalformedResponseError
		assert.True(t, errors.As(err, &merr))
	})

	t.Run("transport", func(t *testing.T) {
		client := new(contract.MockServiceClient)
		client.On("FetchGraph", mock.Anything, "p1").Return(schema.RawResponse{}, errors.New("timeout"))

		_, err := FetchGraph(context.Background(), client, "p1")
		assert.EqualError(t, err, "graph fetch failed: timeout")
	})
}

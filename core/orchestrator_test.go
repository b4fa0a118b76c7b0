package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(client contract.ServiceClient, history contract.HistoryRecorder, opts ...Option) *Orchestrator {
	base := []Option{
		WithTickIntervals(time.Millisecond, time.Millisecond),
		WithRetryDelay(time.Millisecond),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewOrchestrator(client, history, append(base, opts...)...)
}

type stageRecorder struct {
	mu     sync.Mutex
	values map[schema.Stage][]int
}

func (r *stageRecorder) observe(stage schema.Stage, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[schema.Stage][]int)
	}
	r.values[stage] = append(r.values[stage], v)
}

func (r *stageRecorder) get(stage schema.Stage) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values[stage]...)
}

func TestOrchestratorDemoArchive(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("Upload", mock.Anything, demoArchive()).Return(ok(`{"project_id": "p-demo"}`), nil).Once()
	client.On("GenerateGraph", mock.Anything, "p-demo").Return(ok(demoAnalysisBody), nil).Once()

	history := NewHistoryStore(newMemoryStore(t), zerolog.Nop())
	rec := &stageRecorder{}
	orch := newTestOrchestrator(client, history, WithProgressObserver(rec.observe))
	defer func() { _ = orch.Close() }()

	resp, err := orch.Start(context.Background(), demoArchive())
	require.NoError(t, err)
	assert.Equal(t, "p-demo", resp.ProjectID)

	snap := orch.Snapshot()
	assert.Equal(t, schema.CompleteState, snap.State)
	assert.Equal(t, "demo.zip", snap.ArchiveName)
	assert.Equal(t, "p-demo", snap.ProjectID)
	assert.Equal(t, schema.ProgressDone, snap.UploadProgress)
	assert.Equal(t, schema.ProgressDone, snap.AnalysisProgress)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.CanRetry)
	assert.Equal(t, fixedNow, snap.UpdatedAt)

	entries := history.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "p-demo", entries[0].ID)
	assert.Equal(t, "demo.zip", entries[0].Name)
	assert.Equal(t, schema.CompletedStatus, entries[0].Status)
	assert.Equal(t, fixedNow, entries[0].Timestamp)
	assert.Equal(t, schema.FeatureCounts{Existing: 1, Missing: 0, Workflows: 1}, entries[0].Features)

	for _, stage := range []schema.Stage{schema.UploadStage, schema.AnalysisStage} {
		values := rec.get(stage)
		require.NotEmpty(t, values, stage)
		for i := 1; i < len(values); i++ {
			assert.GreaterOrEqual(t, values[i], values[i-1], "progress for %s never decreases", stage)
		}
		assert.Equal(t, schema.ProgressDone, values[len(values)-1])
	}
	client.AssertExpectations(t)
}

func TestOrchestratorRejectsNonZip(t *testing.T) {
	client := new(contract.MockServiceClient)
	orch := newTestOrchestrator(client, nil)

	_, err := orch.Start(context.Background(), schema.Archive{Name: "notes.txt", MediaType: "text/plain"})

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	snap := orch.Snapshot()
	assert.Equal(t, schema.IdleState, snap.State)
	assert.Equal(t, schema.ArchiveRejectedReason, snap.Error)
	assert.False(t, snap.CanRetry)
	client.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestOrchestratorUploadFailureRequiresRestart(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("Upload", mock.Anything, demoArchive()).Return(status(500, "disk full"), nil).Once()
	orch := newTestOrchestrator(client, nil)

	_, err := orch.Start(context.Background(), demoArchive())
	var uerr *schema.UploadError
	require.True(t, errors.As(err, &uerr))

	snap := orch.Snapshot()
	assert.Equal(t, schema.IdleState, snap.State)
	assert.False(t, snap.CanRetry)
	assert.Zero(t, snap.UploadProgress)

	_, err = orch.Retry(context.Background())
	assert.ErrorIs(t, err, schema.ErrRestartRequired)
	client.AssertNumberOfCalls(t, "Upload", 1)
	client.AssertNotCalled(t, "GenerateGraph", mock.Anything, mock.Anything)
}

func TestOrchestratorRetryAfterAnalysisFailure(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("Upload", mock.Anything, demoArchive()).Return(ok(`{"project_id": "p1"}`), nil).Once()
	client.On("GenerateGraph", mock.Anything, "p1").Return(status(422, "unsupported layout"), nil).Once()
	client.On("GenerateGraph", mock.Anything, "p1").Return(ok(demoAnalysisBody), nil).Once()

	history := NewHistoryStore(nil, zerolog.Nop())
	orch := newTestOrchestrator(client, history)

	_, err := orch.Start(context.Background(), demoArchive())
	var aerr *schema.AnalysisError
	require.True(t, errors.As(err, &aerr))

	snap := orch.Snapshot()
	assert.Equal(t, schema.IdleState, snap.State)
	assert.True(t, snap.CanRetry)
	assert.Equal(t, "p1", snap.ProjectID)
	assert.Nil(t, snap.Result)
	assert.Zero(t, snap.AnalysisProgress)
	assert.Zero(t, history.Len())

	resp, err := orch.Retry(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp.Graph)
	assert.Equal(t, schema.CompleteState, orch.State())
	require.Equal(t, 1, history.Len())
	assert.Equal(t, "demo.zip", history.List()[0].Name)
	client.AssertNumberOfCalls(t, "Upload", 1)
}

func TestOrchestratorResume(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p7").Return(ok(demoAnalysisBody), nil).Once()
	history := NewHistoryStore(nil, zerolog.Nop())
	orch := newTestOrchestrator(client, history)

	_, err := orch.Resume(context.Background(), "p7", "")
	require.NoError(t, err)

	entry, err := history.Get("p7")
	require.NoError(t, err)
	assert.Equal(t, schema.UnknownProjectName, entry.Name)
	client.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)

	_, err = orch.Resume(context.Background(), "", "x.zip")
	assert.ErrorIs(t, err, schema.ErrRestartRequired)
}

func TestOrchestratorViewWithoutNetwork(t *testing.T) {
	client := new(contract.MockServiceClient)
	orch := newTestOrchestrator(client, nil)

	result := &schema.AnalysisResult{ExistingFeatures: []schema.Feature{{Name: "api", Confidence: 0.8}}}
	graph := &schema.WorkflowGraph{Nodes: []schema.GraphNode{{ID: "a"}}}
	entry := schema.NewHistoryEntry("p3", "old.zip", fixedNow, result, graph)

	require.NoError(t, orch.View(entry))

	snap := orch.Snapshot()
	assert.Equal(t, schema.CompleteState, snap.State)
	assert.Equal(t, "p3", snap.ProjectID)
	assert.Equal(t, "old.zip", snap.ArchiveName)
	assert.Same(t, result, snap.Result)
	assert.Same(t, graph, snap.Graph)

	client.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GenerateGraph", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "FetchGraph", mock.Anything, mock.Anything)
}

func TestOrchestratorResetAbandonsFlow(t *testing.T) {
	var orch *Orchestrator
	client := new(contract.MockServiceClient)
	client.On("Upload", mock.Anything, demoArchive()).Return(ok(`{"project_id": "p1"}`), nil).Once()
	client.On("GenerateGraph", mock.Anything, "p1").
		Run(func(mock.Arguments) { orch.Reset() }).
		Return(ok(demoAnalysisBody), nil).Once()

	history := NewHistoryStore(nil, zerolog.Nop())
	orch = newTestOrchestrator(client, history)

	_, err := orch.Start(context.Background(), demoArchive())
	assert.ErrorIs(t, err, schema.ErrFlowAbandoned)

	snap := orch.Snapshot()
	assert.Equal(t, schema.IdleState, snap.State)
	assert.Empty(t, snap.ProjectID)
	assert.Nil(t, snap.Result)
	assert.Empty(t, snap.Error)
	assert.Zero(t, snap.AnalysisProgress)
	assert.Zero(t, history.Len(), "late responses are not recorded")
}

func TestOrchestratorResetDuringRetryWait(t *testing.T) {
	var orch *Orchestrator
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").
		Run(func(mock.Arguments) { orch.Reset() }).
		Return(status(503, "busy"), nil)

	orch = newTestOrchestrator(client, nil, WithRetryDelay(time.Hour))

	_, err := orch.Resume(context.Background(), "p1", "demo.zip")
	assert.ErrorIs(t, err, schema.ErrFlowAbandoned)
	client.AssertNumberOfCalls(t, "GenerateGraph", 1)
	assert.Equal(t, schema.IdleState, orch.State())
}

func TestOrchestratorSingleFlight(t *testing.T) {
	var orch *Orchestrator
	var startErr, viewErr error
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").
		Run(func(mock.Arguments) {
			assert.Equal(t, schema.AnalyzingState, orch.State())
			_, startErr = orch.Start(context.Background(), demoArchive())
			viewErr = orch.View(schema.HistoryEntry{ID: "p2"})
		}).
		Return(ok(demoAnalysisBody), nil).Once()

	orch = newTestOrchestrator(client, nil)
	_, err := orch.Resume(context.Background(), "p1", "demo.zip")
	require.NoError(t, err)

	assert.ErrorIs(t, startErr, schema.ErrFlowInProgress)
	assert.ErrorIs(t, viewErr, schema.ErrFlowInProgress)
	assert.Equal(t, "p1", orch.Snapshot().ProjectID)
}

func TestOrchestratorClosed(t *testing.T) {
	client := new(contract.MockServiceClient)
	orch := newTestOrchestrator(client, nil)
	require.NoError(t, orch.Close())

	_, err := orch.Start(context.Background(), demoArchive())
	assert.ErrorIs(t, err, schema.ErrClosed)
	_, err = orch.Resume(context.Background(), "p1", "")
	assert.ErrorIs(t, err, schema.ErrClosed)
	assert.ErrorIs(t, orch.View(schema.HistoryEntry{ID: "p1"}), schema.ErrClosed)
}

func TestOrchestratorHistoryFailureKeepsResult(t *testing.T) {
	client := new(contract.MockServiceClient)
	client.On("GenerateGraph", mock.Anything, "p1").Return(ok(demoAnalysisBody), nil).Once()
	recorder := new(contract.MockHistoryRecorder)
	recorder.On("Record", mock.MatchedBy(func(e schema.HistoryEntry) bool { return e.ID == "p1" })).
		Return(errors.New("disk full")).Once()

	orch := newTestOrchestrator(client, recorder)
	resp, err := orch.Resume(context.Background(), "p1", "demo.zip")
	require.NoError(t, err)
	assert.NotNil(t, resp.Analysis)
	assert.Equal(t, schema.CompleteState, orch.State())
	recorder.AssertExpectations(t)
}

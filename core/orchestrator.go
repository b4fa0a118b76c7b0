package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// Orchestrator drives one archive through upload and analysis.
//
// States move Idle -> Uploading -> Analyzing -> Complete. Any failure returns
// to Idle with the error kept for Snapshot. Flows run on the caller's
// goroutine and only one may be in flight at a time. Reset abandons a flow
// without aborting its request: a generation counter discards whatever the
// request returns afterwards.
//
// Progress observers run on ticker goroutines and must not call Reset, Close
// or start a flow.
type Orchestrator struct {
	uploader *Uploader
	analyzer *Analyzer
	history  contract.HistoryRecorder
	log      zerolog.Logger
	observer ProgressFunc
	now      func() time.Time

	uploadInterval   time.Duration
	analysisInterval time.Duration

	mu               sync.Mutex
	state            schema.FlowState
	archive          *schema.Archive
	projectID        string
	uploadProgress   int
	analysisProgress int
	result           *schema.AnalysisResult
	graph            *schema.WorkflowGraph
	lastErr          error
	canRetry         bool
	updatedAt        time.Time
	gen              uint64
	tickers          []*Progress
	closed           bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithProgressObserver registers a callback for synthetic progress.
func WithProgressObserver(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithRetryDelay overrides the fixed wait between analysis attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.analyzer.retryDelay = d }
}

// WithTickIntervals overrides the progress cadence of both stages.
func WithTickIntervals(upload, analysis time.Duration) Option {
	return func(o *Orchestrator) {
		o.uploadInterval = upload
		o.analysisInterval = analysis
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an idle orchestrator. history may be nil.
func NewOrchestrator(client contract.ServiceClient, history contract.HistoryRecorder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader:         NewUploader(client, zerolog.Nop()),
		analyzer:         NewAnalyzer(client, zerolog.Nop()),
		history:          history,
		log:              zerolog.Nop(),
		now:              time.Now,
		uploadInterval:   schema.UploadTickInterval,
		analysisInterval: schema.AnalysisTickInterval,
		state:            schema.IdleState,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.uploader.log = o.log.With().Str("stage", string(schema.UploadStage)).Logger()
	o.analyzer.log = o.log.With().Str("stage", string(schema.AnalysisStage)).Logger()
	o.updatedAt = o.now()
	return o
}

// Start validates, uploads and analyzes the archive. On success the machine
// is Complete and a history entry has been recorded.
func (o *Orchestrator) Start(ctx context.Context, archive schema.Archive) (schema.GenerateResponse, error) {
	gen, err := o.begin(schema.UploadingState, &archive, "")
	if err != nil {
		return schema.GenerateResponse{}, err
	}

	if err := ValidateArchive(archive); err != nil {
		return schema.GenerateResponse{}, o.fail(gen, err)
	}

	progress := o.startProgress(gen, schema.UploadStage, o.uploadInterval, schema.UploadTickStep)
	projectID, err := o.uploader.Upload(ctx, archive, progress)
	if err != nil {
		return schema.GenerateResponse{}, o.fail(gen, err)
	}

	if err := o.enterAnalyzing(gen, projectID); err != nil {
		return schema.GenerateResponse{}, err
	}
	return o.analyze(ctx, gen, projectID, archive.Name)
}

// Retry re-enters Analyzing for the project left by the last failure.
// Without one, the archive must be uploaded again and ErrRestartRequired is returned.
func (o *Orchestrator) Retry(ctx context.Context) (schema.GenerateResponse, error) {
	o.mu.Lock()
	if err := o.checkStartable(); err != nil {
		o.mu.Unlock()
		return schema.GenerateResponse{}, err
	}
	if !o.canRetry || o.projectID == "" {
		o.mu.Unlock()
		return schema.GenerateResponse{}, schema.ErrRestartRequired
	}
	projectID := o.projectID
	var name string
	if o.archive != nil {
		name = o.archive.Name
	}
	o.mu.Unlock()

	return o.Resume(ctx, projectID, name)
}

// Resume enters Analyzing directly for a project the service already holds.
// name is used for the history entry.
func (o *Orchestrator) Resume(ctx context.Context, projectID, name string) (schema.GenerateResponse, error) {
	if projectID == "" {
		return schema.GenerateResponse{}, schema.ErrRestartRequired
	}
	var archive *schema.Archive
	if name != "" {
		archive = &schema.Archive{Name: name}
	}
	gen, err := o.begin(schema.AnalyzingState, archive, projectID)
	if err != nil {
		return schema.GenerateResponse{}, err
	}
	return o.analyze(ctx, gen, projectID, name)
}

// View moves straight to Complete with a stored entry. No request is made.
func (o *Orchestrator) View(entry schema.HistoryEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkStartable(); err != nil {
		return err
	}
	o.gen++
	o.clearLocked()
	o.state = schema.CompleteState
	o.archive = &schema.Archive{Name: entry.Name}
	o.projectID = entry.ID
	o.result = entry.Analysis
	o.graph = entry.Graph
	o.updatedAt = o.now()
	return nil
}

// Reset returns to Idle and clears every transient field. History is kept.
// A flow in flight is abandoned and its caller receives ErrFlowAbandoned.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	wasActive := o.isActiveLocked()
	o.gen++
	tickers := o.tickers
	o.clearLocked()
	o.updatedAt = o.now()
	o.mu.Unlock()

	for _, t := range tickers {
		t.Stop()
	}
	if wasActive {
		o.log.Info().Msg("in-flight analysis abandoned by reset")
	}
}

// Close stops all tickers. Later calls that start work fail with ErrClosed.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.gen++
	tickers := o.tickers
	o.tickers = nil
	o.mu.Unlock()

	for _, t := range tickers {
		t.Stop()
	}
	return nil
}

// Snapshot returns a consistent view of the current state.
func (o *Orchestrator) Snapshot() schema.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := schema.Snapshot{
		State:            o.state,
		ProjectID:        o.projectID,
		UploadProgress:   o.uploadProgress,
		AnalysisProgress: o.analysisProgress,
		Result:           o.result,
		Graph:            o.graph,
		CanRetry:         o.canRetry,
		UpdatedAt:        o.updatedAt,
	}
	if o.archive != nil {
		snap.ArchiveName = o.archive.Name
	}
	if o.lastErr != nil {
		snap.Error = o.lastErr.Error()
	}
	return snap
}

// State returns the current state.
func (o *Orchestrator) State() schema.FlowState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) analyze(ctx context.Context, gen uint64, projectID, name string) (schema.GenerateResponse, error) {
	progress := o.startProgress(gen, schema.AnalysisStage, o.analysisInterval, schema.AnalysisTickStep)
	resp, err := o.analyzer.Analyze(ctx, projectID, progress)
	if err != nil {
		return schema.GenerateResponse{}, o.fail(gen, err)
	}

	entry := schema.NewHistoryEntry(projectID, name, o.now(), resp.Analysis, resp.Graph)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		telemetry.RecordFlow(telemetry.OutcomeAbandoned)
		return schema.GenerateResponse{}, schema.ErrFlowAbandoned
	}
	o.state = schema.CompleteState
	o.result = resp.Analysis
	o.graph = resp.Graph
	o.lastErr = nil
	o.canRetry = false
	o.updatedAt = o.now()
	o.mu.Unlock()

	telemetry.RecordFlow(telemetry.OutcomeCompleted)
	o.log.Info().Str("project_id", projectID).
		Int("existing", entry.Features.Existing).
		Int("missing", entry.Features.Missing).
		Int("workflows", entry.Features.Workflows).
		Msg("analysis completed")

	if o.history != nil {
		if err := o.history.Record(entry); err != nil {
			o.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to record history entry")
		}
	}
	return resp, nil
}

// begin claims the machine for a new flow and returns its generation.
func (o *Orchestrator) begin(state schema.FlowState, archive *schema.Archive, projectID string) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.checkStartable(); err != nil {
		return 0, err
	}
	o.gen++
	o.clearLocked()
	o.state = state
	o.archive = archive
	o.projectID = projectID
	o.updatedAt = o.now()
	return o.gen, nil
}

func (o *Orchestrator) enterAnalyzing(gen uint64, projectID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		telemetry.RecordFlow(telemetry.OutcomeAbandoned)
		return schema.ErrFlowAbandoned
	}
	o.state = schema.AnalyzingState
	o.projectID = projectID
	o.updatedAt = o.now()
	return nil
}

// fail returns the machine to Idle with err, keeping the project id so the
// analysis stage can be retried.
func (o *Orchestrator) fail(gen uint64, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen || errors.Is(err, schema.ErrFlowAbandoned) {
		telemetry.RecordFlow(telemetry.OutcomeAbandoned)
		return schema.ErrFlowAbandoned
	}
	o.state = schema.IdleState
	o.lastErr = err
	o.canRetry = o.projectID != ""
	o.result = nil
	o.graph = nil
	o.uploadProgress = 0
	o.analysisProgress = 0
	o.tickers = nil
	o.updatedAt = o.now()
	telemetry.RecordFlow(telemetry.OutcomeFailed)
	o.log.Warn().Err(err).Str("project_id", o.projectID).Msg("analysis flow failed")
	return err
}

// startProgress starts a ticker whose values only reach Snapshot and the
// observer while gen is current.
func (o *Orchestrator) startProgress(gen uint64, stage schema.Stage, interval time.Duration, step int) *Progress {
	p := StartProgress(interval, step, func(v int) { o.setProgress(gen, stage, v) })

	o.mu.Lock()
	current := gen == o.gen
	if current {
		o.tickers = append(o.tickers, p)
	}
	o.mu.Unlock()

	if !current {
		p.Stop()
	}
	return p
}

func (o *Orchestrator) setProgress(gen uint64, stage schema.Stage, v int) {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	if stage == schema.UploadStage {
		o.uploadProgress = v
	} else {
		o.analysisProgress = v
	}
	observer := o.observer
	o.mu.Unlock()

	if observer != nil {
		observer(stage, v)
	}
}

func (o *Orchestrator) checkStartable() error {
	if o.closed {
		return schema.ErrClosed
	}
	if o.isActiveLocked() {
		return schema.ErrFlowInProgress
	}
	return nil
}

func (o *Orchestrator) isActiveLocked() bool {
	return o.state == schema.UploadingState || o.state == schema.AnalyzingState
}

func (o *Orchestrator) clearLocked() {
	o.state = schema.IdleState
	o.archive = nil
	o.projectID = ""
	o.uploadProgress = 0
	o.analysisProgress = 0
	o.result = nil
	o.graph = nil
	o.lastErr = nil
	o.canRetry = false
	o.tickers = nil
}

package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestration and export.
var (
	ErrFlowInProgress  = errors.New("an analysis flow is already in progress")
	ErrFlowAbandoned   = errors.New("analysis flow was reset before it finished")
	ErrRestartRequired = errors.New("no project to retry; upload the archive again")
	ErrSceneNotMounted = errors.New("graph scene is not mounted")
	ErrClosed          = errors.New("orchestrator is closed")
	ErrEntryNotFound   = errors.New("history entry not found")
)

// ValidationError is returned when an archive is rejected before upload.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// UploadError is a non-2xx response from the ingest service.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("Upload failed with status %d: %s", e.Status, e.Body)
}

// AnalysisError is a terminal failure of the analysis call.
type AnalysisError struct {
	Status   int
	Body     string
	Attempts int
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("Analysis failed with status %d after %d attempt(s): %s", e.Status, e.Attempts, e.Body)
}

// Retryable reports whether a later manual retry could succeed.
func (e *AnalysisError) Retryable() bool {
	return e.Status >= 500
}

// MalformedResponseError is a 2xx response that does not honor the contract.
type MalformedResponseError struct {
	Stage  Stage
	Detail string
}

func (e *MalformedResponseError) Error() string {
	if e.Stage == UploadStage {
		return "Invalid upload response from server: " + e.Detail
	}
	return "Invalid analysis response from server: " + e.Detail
}

// GraphContractError reports an interchange graph that violates its invariants.
type GraphContractError struct {
	Kind   string // duplicate_node, duplicate_edge or dangling_edge
	ID     string
	NodeID string
}

func (e *GraphContractError) Error() string {
	switch e.Kind {
	case DuplicateNodeKind:
		return fmt.Sprintf("graph contract violated: duplicate node id %q", e.ID)
	case DuplicateEdgeKind:
		return fmt.Sprintf("graph contract violated: duplicate edge id %q", e.ID)
	default:
		return fmt.Sprintf("graph contract violated: edge %q references unknown node %q", e.ID, e.NodeID)
	}
}

// Graph contract violation kinds.
const (
	DuplicateNodeKind = "duplicate_node"
	DuplicateEdgeKind = "duplicate_edge"
	DanglingEdgeKind  = "dangling_edge"
)

// PersistenceError wraps a failure to read or write the history slot.
type PersistenceError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s of %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

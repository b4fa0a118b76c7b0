package schema

import "encoding/json"

// Position is a 2D coordinate in graph space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphNode is a node of the interchange graph returned by the service.
type GraphNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Position Position       `json:"position"`
	Icon     string         `json:"icon,omitempty"`
	Type     string         `json:"type,omitempty"`
	Category string         `json:"category,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// EdgeStyle holds the stroke attributes of an edge. Zero values mean unset.
type EdgeStyle struct {
	Stroke          string  `json:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
}

// GraphEdge is a directed connection between two nodes of the same graph.
type GraphEdge struct {
	ID     string     `json:"id"`
	Source string     `json:"source"`
	Target string     `json:"target"`
	Label  string     `json:"label,omitempty"`
	Type   string     `json:"type,omitempty"`
	Style  *EdgeStyle `json:"style,omitempty"`
}

// GraphMetadata describes a generated graph.
type GraphMetadata struct {
	ProjectID       string          `json:"project_id,omitempty"`
	GeneratedAt     string          `json:"generated_at,omitempty"`
	TotalNodes      int             `json:"total_nodes"`
	TotalEdges      int             `json:"total_edges"`
	NodeTypes       []string        `json:"node_types,omitempty"`
	AnalysisSummary json.RawMessage `json:"analysis_summary,omitempty"`
}

// WorkflowGraph is the abstract node/edge interchange format.
type WorkflowGraph struct {
	Nodes    []GraphNode    `json:"nodes"`
	Edges    []GraphEdge    `json:"edges"`
	Metadata *GraphMetadata `json:"metadata,omitempty"`
}

// ProjectID returns the project id carried in the metadata, if any.
func (g *WorkflowGraph) ProjectID() string {
	if g == nil || g.Metadata == nil {
		return ""
	}
	return g.Metadata.ProjectID
}

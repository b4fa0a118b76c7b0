// Package graph turns interchange graphs into render-ready graphs and PNG images.
package graph

import (
	"errors"
	"maps"

	"github.com/huangsam/archflow/schema"
)

// Render types understood by the diagramming surface.
const (
	NodeRenderType = "default"
	EdgeRenderType = "smoothstep"
)

// Edge stroke defaults.
const (
	DefaultStroke          = "#6B7280"
	DefaultStrokeWidth     = 2.0
	DefaultStrokeDasharray = "0"
)

// ErrNoGraph is returned when there is no graph to adapt.
var ErrNoGraph = errors.New("no workflow graph to adapt")

// defaultNodeStyle is applied under every node's own style.
var defaultNodeStyle = map[string]any{
	"borderRadius": "8px",
	"padding":      "12px",
	"minWidth":     "150px",
	"textAlign":    "center",
	"boxShadow":    "0 4px 6px -1px rgba(0, 0, 0, 0.1)",
}

// LabelStyle is the text style of an edge label.
type LabelStyle struct {
	Fill       string `json:"fill"`
	FontWeight int    `json:"fontWeight"`
	FontSize   string `json:"fontSize"`
}

// LabelBgStyle is the background behind an edge label.
type LabelBgStyle struct {
	Fill        string  `json:"fill"`
	FillOpacity float64 `json:"fillOpacity"`
}

// fixed edge label styling
var (
	edgeLabelStyle   = LabelStyle{Fill: "#6B7280", FontWeight: 500, FontSize: "12px"}
	edgeLabelBgStyle = LabelBgStyle{Fill: "#1F2937", FillOpacity: 0.8}
)

// Node is a node with its display styling resolved.
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position schema.Position `json:"position"`
	Label    string          `json:"label"`
	Category string          `json:"category,omitempty"`
	Style    map[string]any  `json:"style"`
	Data     map[string]any  `json:"data"`
}

// Edge is an edge with its connector and stroke resolved.
type Edge struct {
	ID           string           `json:"id"`
	Source       string           `json:"source"`
	Target       string           `json:"target"`
	Type         string           `json:"type"`
	Label        string           `json:"label,omitempty"`
	Style        schema.EdgeStyle `json:"style"`
	LabelStyle   LabelStyle       `json:"labelStyle"`
	LabelBgStyle LabelBgStyle     `json:"labelBgStyle"`
}

// Renderable is a graph ready to hand to a diagramming surface.
type Renderable struct {
	Nodes    []Node                `json:"nodes"`
	Edges    []Edge                `json:"edges"`
	Metadata *schema.GraphMetadata `json:"metadata,omitempty"`
}

// ProjectID returns the project id from the metadata, if any.
func (r *Renderable) ProjectID() string {
	if r == nil || r.Metadata == nil {
		return ""
	}
	return r.Metadata.ProjectID
}

// Adapt validates g and resolves its styling. Duplicate ids and edges that
// reference unknown nodes fail with a GraphContractError before any output is built.
func Adapt(g *schema.WorkflowGraph) (*Renderable, error) {
	if g == nil {
		return nil, ErrNoGraph
	}
	if err := Validate(g); err != nil {
		return nil, err
	}

	r := &Renderable{
		Nodes:    make([]Node, 0, len(g.Nodes)),
		Edges:    make([]Edge, 0, len(g.Edges)),
		Metadata: g.Metadata,
	}
	for _, n := range g.Nodes {
		r.Nodes = append(r.Nodes, adaptNode(n))
	}
	for _, e := range g.Edges {
		r.Edges = append(r.Edges, adaptEdge(e))
	}
	return r, nil
}

// Validate checks node and edge id uniqueness and that every edge endpoint exists.
func Validate(g *schema.WorkflowGraph) error {
	nodeIDs := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := nodeIDs[n.ID]; dup {
			return &schema.GraphContractError{Kind: schema.DuplicateNodeKind, ID: n.ID}
		}
		nodeIDs[n.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if _, dup := edgeIDs[e.ID]; dup {
			return &schema.GraphContractError{Kind: schema.DuplicateEdgeKind, ID: e.ID}
		}
		edgeIDs[e.ID] = struct{}{}

		for _, endpoint := range []string{e.Source, e.Target} {
			if _, ok := nodeIDs[endpoint]; !ok {
				return &schema.GraphContractError{Kind: schema.DanglingEdgeKind, ID: e.ID, NodeID: endpoint}
			}
		}
	}
	return nil
}

func adaptNode(n schema.GraphNode) Node {
	style := maps.Clone(defaultNodeStyle)
	maps.Copy(style, n.Style)

	label := n.Label
	if n.Icon != "" {
		label = n.Icon + " " + n.Label
	}

	data := map[string]any{"label": label}
	maps.Copy(data, n.Data)

	return Node{
		ID:       n.ID,
		Type:     NodeRenderType,
		Position: n.Position,
		Label:    label,
		Category: n.Category,
		Style:    style,
		Data:     data,
	}
}

func adaptEdge(e schema.GraphEdge) Edge {
	style := schema.EdgeStyle{
		Stroke:          DefaultStroke,
		StrokeWidth:     DefaultStrokeWidth,
		StrokeDasharray: DefaultStrokeDasharray,
	}
	if e.Style != nil {
		if e.Style.Stroke != "" {
			style.Stroke = e.Style.Stroke
		}
		if e.Style.StrokeWidth > 0 {
			style.StrokeWidth = e.Style.StrokeWidth
		}
		if e.Style.StrokeDasharray != "" {
			style.StrokeDasharray = e.Style.StrokeDasharray
		}
	}
	return Edge{
		ID:           e.ID,
		Source:       e.Source,
		Target:       e.Target,
		Type:         EdgeRenderType,
		Label:        e.Label,
		Style:        style,
		LabelStyle:   edgeLabelStyle,
		LabelBgStyle: edgeLabelBgStyle,
	}
}

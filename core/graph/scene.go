package graph

import (
	"image/color"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/huangsam/archflow/schema"
)

// Scene geometry.
const (
	sceneMargin    = 40.0
	glyphWidth     = 7.0 // basicfont.Face7x13 advance
	lineHeight     = 13.0
	minSceneSize   = 200.0
	maxSceneSize   = 8000.0
	titleBandWidth = 24.0
	shadowOffset   = 4.0
	defaultBorder  = 1.0
)

// Scene colors.
var (
	sceneBackground   = color.RGBA{0x0F, 0x17, 0x2A, 0xFF}
	defaultNodeFill   = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	defaultNodeText   = color.RGBA{0x1F, 0x29, 0x37, 0xFF}
	defaultNodeBorder = color.RGBA{0x1A, 0x19, 0x2B, 0xFF}
	defaultEdgeStroke = color.RGBA{0x6B, 0x72, 0x80, 0xFF}
	defaultLabelBg    = color.RGBA{0x1F, 0x29, 0x37, 0xFF}
	titleColor        = color.RGBA{0xE5, 0xE7, 0xEB, 0xFF}
	shadowColor       = color.RGBA{0x00, 0x00, 0x00, 0x1A}
)

// Point is a scene coordinate.
type Point struct {
	X, Y float64
}

// Box is a node drawn as a rounded rectangle with centered text.
type Box struct {
	ID          string
	X, Y, W, H  float64
	Radius      float64
	Fill        color.RGBA
	Border      color.RGBA
	BorderWidth float64
	Text        color.RGBA
	Label       string
}

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Connector is an edge drawn as an orthogonal step path.
type Connector struct {
	ID      string
	Points  []Point
	Stroke  color.RGBA
	Width   float64
	Dash    []float64
	Label   string
	LabelAt Point
	LabelFg color.RGBA
	LabelBg color.RGBA
}

// Scene is a laid-out vector drawing of a graph. The zero value is unmounted.
type Scene struct {
	Width, Height float64
	Background    color.RGBA
	Title         string
	ProjectID     string
	Boxes         []Box
	Connectors    []Connector
	mounted       bool
}

// Mounted reports whether the scene was produced by Mount.
func (s *Scene) Mounted() bool {
	return s != nil && s.mounted
}

// Mount lays out a renderable graph. Node positions are kept and shifted so
// the drawing starts at the margin.
func Mount(r *Renderable) (*Scene, error) {
	if r == nil {
		return nil, ErrNoGraph
	}

	boxes := make([]Box, 0, len(r.Nodes))
	index := make(map[string]int, len(r.Nodes))
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range r.Nodes {
		b := layoutBox(n)
		index[n.ID] = len(boxes)
		boxes = append(boxes, b)
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
	}
	if len(boxes) == 0 {
		minX, minY = 0, 0
	}

	// shift into positive space below the title band
	dx := sceneMargin - minX
	dy := sceneMargin + titleBandWidth - minY
	maxX, maxY := 0.0, 0.0
	for i := range boxes {
		boxes[i].X += dx
		boxes[i].Y += dy
		maxX = math.Max(maxX, boxes[i].X+boxes[i].W)
		maxY = math.Max(maxY, boxes[i].Y+boxes[i].H)
	}

	connectors := make([]Connector, 0, len(r.Edges))
	for _, e := range r.Edges {
		src, okS := index[e.Source]
		dst, okT := index[e.Target]
		if !okS || !okT {
			return nil, &schema.GraphContractError{Kind: schema.DanglingEdgeKind, ID: e.ID, NodeID: missingEndpoint(okS, e)}
		}
		connectors = append(connectors, layoutConnector(e, boxes[src], boxes[dst]))
	}

	title := "Workflow Graph"
	if r.Metadata != nil {
		title += " - " + strconv.Itoa(r.Metadata.TotalNodes) + " nodes, " + strconv.Itoa(r.Metadata.TotalEdges) + " edges"
	}

	return &Scene{
		Width:      clampSize(maxX + sceneMargin),
		Height:     clampSize(maxY + sceneMargin),
		Background: sceneBackground,
		Title:      title,
		ProjectID:  r.ProjectID(),
		Boxes:      boxes,
		Connectors: connectors,
		mounted:    true,
	}, nil
}

func layoutBox(n Node) Box {
	padding := parsePixels(n.Style["padding"], 12)
	minWidth := parsePixels(n.Style["minWidth"], 150)
	textWidth := float64(utf8.RuneCountInString(n.Label)) * glyphWidth
	return Box{
		ID:          n.ID,
		X:           n.Position.X,
		Y:           n.Position.Y,
		W:           math.Max(minWidth, textWidth+2*padding),
		H:           lineHeight + 2*padding,
		Radius:      parsePixels(n.Style["borderRadius"], 8),
		Fill:        parseColor(n.Style["backgroundColor"], defaultNodeFill),
		Border:      parseColor(n.Style["borderColor"], defaultNodeBorder),
		BorderWidth: parsePixels(n.Style["borderWidth"], defaultBorder),
		Text:        parseColor(n.Style["color"], defaultNodeText),
		Label:       n.Label,
	}
}

// layoutConnector routes from the bottom of src to the top of dst through a
// horizontal segment halfway between them.
func layoutConnector(e Edge, src, dst Box) Connector {
	start := Point{X: src.X + src.W/2, Y: src.Y + src.H}
	end := Point{X: dst.X + dst.W/2, Y: dst.Y}
	midY := (start.Y + end.Y) / 2
	points := []Point{start, {X: start.X, Y: midY}, {X: end.X, Y: midY}, end}

	labelBg := parseColor(e.LabelBgStyle.Fill, defaultLabelBg)
	labelBg.A = uint8(e.LabelBgStyle.FillOpacity * 255)

	return Connector{
		ID:      e.ID,
		Points:  points,
		Stroke:  parseColor(e.Style.Stroke, defaultEdgeStroke),
		Width:   e.Style.StrokeWidth,
		Dash:    parseDash(e.Style.StrokeDasharray),
		Label:   e.Label,
		LabelAt: Point{X: (start.X + end.X) / 2, Y: midY},
		LabelFg: parseColor(e.LabelStyle.Fill, defaultEdgeStroke),
		LabelBg: labelBg,
	}
}

func missingEndpoint(sourceFound bool, e Edge) string {
	if !sourceFound {
		return e.Source
	}
	return e.Target
}

func clampSize(v float64) float64 {
	return math.Min(math.Max(math.Ceil(v), minSceneSize), maxSceneSize)
}

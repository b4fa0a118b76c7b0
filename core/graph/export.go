package graph

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"golang.org/x/image/font/basicfont"
)

// labelPadding surrounds edge labels inside their background.
const labelPadding = 4.0

// Image is an encoded PNG together with its proposed file name.
type Image struct {
	Filename string
	Data     []byte
}

// Export rasterizes a mounted scene to PNG. The file name is derived from the
// scene's project id.
func Export(scene *Scene) (Image, error) {
	img, err := export(scene)
	telemetry.RecordExport(err)
	return img, err
}

func export(scene *Scene) (Image, error) {
	if !scene.Mounted() {
		return Image{}, schema.ErrSceneNotMounted
	}

	dc := gg.NewContext(int(scene.Width), int(scene.Height))
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(scene.Background)
	dc.Clear()

	dc.SetColor(titleColor)
	dc.DrawString(scene.Title, sceneMargin, sceneMargin)

	for _, c := range scene.Connectors {
		drawConnector(dc, c)
	}
	for _, b := range scene.Boxes {
		drawBox(dc, b)
	}
	for _, c := range scene.Connectors {
		drawConnectorLabel(dc, c)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return Image{}, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return Image{Filename: schema.ExportFilename(scene.ProjectID), Data: buf.Bytes()}, nil
}

func drawBox(dc *gg.Context, b Box) {
	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(b.X, b.Y+shadowOffset, b.W, b.H, b.Radius)
	dc.Fill()

	dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, b.Radius)
	dc.SetColor(b.Fill)
	dc.FillPreserve()
	dc.SetColor(b.Border)
	dc.SetLineWidth(b.BorderWidth)
	dc.Stroke()

	dc.SetColor(b.Text)
	center := b.Center()
	dc.DrawStringAnchored(b.Label, center.X, center.Y, 0.5, 0.35)
}

func drawConnector(dc *gg.Context, c Connector) {
	if len(c.Points) < 2 {
		return
	}
	dc.SetColor(c.Stroke)
	dc.SetLineWidth(c.Width)
	dc.SetDash(c.Dash...)
	dc.MoveTo(c.Points[0].X, c.Points[0].Y)
	for _, p := range c.Points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
	dc.SetDash()

	// arrowhead pointing down into the target
	end := c.Points[len(c.Points)-1]
	dc.MoveTo(end.X-4, end.Y-6)
	dc.LineTo(end.X, end.Y)
	dc.LineTo(end.X+4, end.Y-6)
	dc.ClosePath()
	dc.Fill()
}

func drawConnectorLabel(dc *gg.Context, c Connector) {
	if c.Label == "" {
		return
	}
	w, h := dc.MeasureString(c.Label)
	dc.SetColor(c.LabelBg)
	dc.DrawRoundedRectangle(c.LabelAt.X-w/2-labelPadding, c.LabelAt.Y-h/2-labelPadding, w+2*labelPadding, h+2*labelPadding, 2)
	dc.Fill()
	dc.SetColor(c.LabelFg)
	dc.DrawStringAnchored(c.Label, c.LabelAt.X, c.LabelAt.Y, 0.5, 0.35)
}

// WriteFile writes img into dir through a temporary file and a rename, so a
// failed write never leaves a partial image behind. It returns the final path.
func WriteFile(dir string, img Image) (string, error) {
	if img.Filename == "" || len(img.Data) == 0 {
		return "", errors.New("image is empty; export a mounted scene first")
	}
	if filepath.Base(img.Filename) != img.Filename || img.Filename == "." || img.Filename == ".." {
		return "", fmt.Errorf("image filename %q must not contain a path", img.Filename)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".archflow-export-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	if _, err := tmp.Write(img.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	finalPath := filepath.Join(dir, img.Filename)
	if err := os.Rename(tmpName, finalPath); err != nil {
		return "", fmt.Errorf("failed to move image into place: %w", err)
	}
	return finalPath, nil
}

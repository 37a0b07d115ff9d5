// Package render draws annotated sample frames: zone polygons with
// detection boxes overlaid, encoded as PNG. It implements the engine's
// Annotator and is the only package that knows how to draw.
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/waitline/waitline/internal/detect"
	"github.com/waitline/waitline/internal/zones"
)

// Renderer draws frames for one session's zone set over a fixed frame size,
// so every sample of a session shares the same axes.
type Renderer struct {
	reg    *zones.Registry
	width  float64 // frame width in pixels
	height float64 // frame height in pixels
	colors []color.Color
}

// NewRenderer returns a renderer for the given zones over a width x height
// pixel frame. Dimensions must be positive.
func NewRenderer(reg *zones.Registry, width, height float64) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame dimensions must be positive, got %gx%g", width, height)
	}
	return &Renderer{
		reg:    reg,
		width:  width,
		height: height,
		colors: palette(reg.Len()),
	}, nil
}

// Annotate renders one frame's detections over the zone geometry and
// returns the encoded PNG.
func (r *Renderer) Annotate(frameIndex int64, detections []detect.Detection) ([]byte, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("frame %d", frameIndex)
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.X.Min, p.X.Max = 0, r.width
	p.Y.Min, p.Y.Max = 0, r.height

	for i, z := range r.reg.Zones() {
		ring := make(plotter.XYs, 0, len(z.Polygon)+1)
		for _, v := range z.Polygon {
			ring = append(ring, plotter.XY{X: v.X, Y: r.flip(v.Y)})
		}
		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return nil, fmt.Errorf("zone %d polygon: %w", z.ID, err)
		}
		c := r.colors[i%len(r.colors)]
		poly.Color = withAlpha(c, 48)
		poly.LineStyle.Color = c
		poly.LineStyle.Width = vg.Points(1.5)
		p.Add(poly)
		p.Legend.Add(fmt.Sprintf("%s (%d)", z.Name, z.ID), poly)
	}

	labels := plotter.XYLabels{}
	for _, d := range detections {
		box, err := plotter.NewLine(plotter.XYs{
			{X: d.Box.X1, Y: r.flip(d.Box.Y1)},
			{X: d.Box.X2, Y: r.flip(d.Box.Y1)},
			{X: d.Box.X2, Y: r.flip(d.Box.Y2)},
			{X: d.Box.X1, Y: r.flip(d.Box.Y2)},
			{X: d.Box.X1, Y: r.flip(d.Box.Y1)},
		})
		if err != nil {
			return nil, fmt.Errorf("detection %d box: %w", d.TrackID, err)
		}
		box.Color = color.RGBA{R: 220, G: 40, B: 40, A: 255}
		box.Width = vg.Points(1)
		p.Add(box)

		pt := d.Point()
		labels.XYs = append(labels.XYs, plotter.XY{X: pt.X, Y: r.flip(pt.Y)})
		labels.Labels = append(labels.Labels, fmt.Sprintf("#%d", d.TrackID))
	}
	if len(labels.XYs) > 0 {
		lbl, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("detection labels: %w", err)
		}
		p.Add(lbl)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", frameIndex, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write frame %d: %w", frameIndex, err)
	}
	return buf.Bytes(), nil
}

// flip converts image-space Y (origin top-left, down-positive) to plot
// space (up-positive).
func (r *Renderer) flip(y float64) float64 { return r.height - y }

// palette returns n visually distinct colors spread around the hue wheel.
func palette(n int) []color.Color {
	if n <= 0 {
		return []color.Color{color.RGBA{R: 70, G: 130, B: 180, A: 255}}
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package facetplot renders faceted scatter plots of tables.
//
// A facet grid splits one chart into a grid of panels, with one row of
// panels per distinct value of the row facet columns and one column
// of panels per distinct combination of the column facet columns.
// Every panel plots the same X and Y columns, colors points by the
// value of a color column, and shares its axis ranges with every
// other panel so panels can be compared directly.
package facetplot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"reflect"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Spec describes a faceted scatter plot.
type Spec struct {
	// X and Y are the names of the numeric columns to plot.
	X, Y string
	// LogY selects a base-10 logarithmic Y axis. Points with
	// non-positive Y values cannot be shown on such an axis and
	// are dropped.
	LogY bool

	// Color is the name of the column whose values select the
	// color of each point. If empty, all points use one color.
	Color string

	// Rows and Cols are the names of the facet columns. Either
	// may be empty.
	Rows, Cols []string

	// Width and Height are the image size. If zero, they default
	// to 12 by 8 inches.
	Width, Height vg.Length
	// DPI is the image resolution. If zero, it defaults to 96.
	DPI int
}

var errNoRows = errors.New("no rows to plot")

const (
	defaultWidth  = 12 * vg.Inch
	defaultHeight = 8 * vg.Inch
	defaultDPI    = 96

	pointRadius = 2
)

// A Grid is a laid out facet grid, ready to be drawn.
type Grid struct {
	// RowLabels and ColLabels are the facet labels of each row
	// and column of panels.
	RowLabels, ColLabels []string

	// Plots holds the panels, indexed by row and then column.
	Plots [][]*plot.Plot

	// Points is the number of points drawn in each panel.
	Points [][]int

	// ColorLabels are the distinct values of the color column, in
	// legend order.
	ColorLabels []string

	// Dropped is the number of rows that could not be drawn
	// because X or Y was not finite, or Y was not positive on a
	// logarithmic axis.
	Dropped int

	spec Spec
}

// Plots lays out the facet grid of t described by s.
func (s Spec) Plots(t *table.Table) (*Grid, error) {
	if err := s.check(t); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, errNoRows
	}

	var xs, ys []float64
	slice.Convert(&xs, t.MustColumn(s.X))
	slice.Convert(&ys, t.MustColumn(s.Y))

	rows := newFacet(t, s.Rows)
	cols := newFacet(t, s.Cols)
	var colors *facet
	if s.Color != "" {
		colors = newFacet(t, []string{s.Color})
	} else {
		colors = newFacet(t, nil)
	}

	g := &Grid{spec: s}
	for i := range rows.levels {
		g.RowLabels = append(g.RowLabels, rows.label(i))
	}
	for i := range cols.levels {
		g.ColLabels = append(g.ColLabels, cols.label(i))
	}
	for _, k := range colors.levels {
		if len(k) == 0 {
			g.ColorLabels = append(g.ColorLabels, "")
		} else {
			g.ColorLabels = append(g.ColorLabels, fmt.Sprint(k[0]))
		}
	}

	// Bucket the points by panel and color.
	nr, nc, ncolor := len(rows.levels), len(cols.levels), len(colors.levels)
	points := make([][][]plotter.XYs, nr)
	for i := range points {
		points[i] = make([][]plotter.XYs, nc)
		for j := range points[i] {
			points[i][j] = make([]plotter.XYs, ncolor)
		}
	}
	xr, yr := newRange(), newRange()
	for row := range xs {
		x, y := xs[row], ys[row]
		if !finite(x) || !finite(y) || (s.LogY && y <= 0) {
			g.Dropped++
			continue
		}
		xr.add(x)
		yr.add(y)
		p := &points[rows.index[row]][cols.index[row]][colors.index[row]]
		*p = append(*p, plotter.XY{X: x, Y: y})
	}
	xmin, xmax := xr.bounds(false)
	ymin, ymax := yr.bounds(s.LogY)

	palette := colorPalette(ncolor)
	g.Plots = make([][]*plot.Plot, nr)
	g.Points = make([][]int, nr)
	for i := 0; i < nr; i++ {
		g.Plots[i] = make([]*plot.Plot, nc)
		g.Points[i] = make([]int, nc)
		for j := 0; j < nc; j++ {
			p := plot.New()
			p.Title.Text = panelTitle(g.RowLabels[i], g.ColLabels[j])
			p.Title.TextStyle.Font.Size = vg.Points(10)
			if i == nr-1 {
				p.X.Label.Text = s.X
			}
			if j == 0 {
				p.Y.Label.Text = s.Y
			}
			if s.LogY {
				p.Y.Scale = plot.LogScale{}
				p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
			}
			p.Add(plotter.NewGrid())

			for c, xys := range points[i][j] {
				if len(xys) == 0 {
					continue
				}
				sc, err := newScatter(xys, palette[c])
				if err != nil {
					return nil, err
				}
				p.Add(sc)
				g.Points[i][j] += len(xys)
			}

			// Legend in the top right panel only.
			if i == 0 && j == nc-1 && s.Color != "" {
				p.Legend.Top = true
				for c, label := range g.ColorLabels {
					thumb, err := newScatter(nil, palette[c])
					if err != nil {
						return nil, err
					}
					p.Legend.Add(label, thumb)
				}
			}

			// All panels share scales.
			p.X.Min, p.X.Max = xmin, xmax
			p.Y.Min, p.Y.Max = ymin, ymax
			g.Plots[i][j] = p
		}
	}
	return g, nil
}

func (s Spec) check(t *table.Table) error {
	need := []string{s.X, s.Y}
	if s.Color != "" {
		need = append(need, s.Color)
	}
	need = append(need, s.Rows...)
	need = append(need, s.Cols...)
	for _, col := range need {
		if t.Column(col) == nil {
			return fmt.Errorf("unknown column %q", col)
		}
	}
	for _, col := range []string{s.X, s.Y} {
		if !isNumeric(reflect.TypeOf(t.MustColumn(col)).Elem().Kind()) {
			return fmt.Errorf("column %q is not numeric", col)
		}
	}
	return nil
}

// WritePNG draws the grid and writes it to w as a PNG image.
func (g *Grid) WritePNG(w io.Writer) error {
	width, height, dpi := g.spec.Width, g.spec.Height, g.spec.DPI
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}
	if dpi == 0 {
		dpi = defaultDPI
	}

	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(g.Plots),
		Cols:      len(g.Plots[0]),
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(g.Plots, tiles, dc)
	for i := range g.Plots {
		for j, p := range g.Plots[i] {
			p.Draw(canvases[i][j])
		}
	}
	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// Render lays out the facet grid of t described by s and writes it to
// w as a PNG image. It returns the number of rows that could not be
// drawn.
func Render(w io.Writer, t *table.Table, s Spec) (dropped int, err error) {
	g, err := s.Plots(t)
	if err != nil {
		return 0, err
	}
	return g.Dropped, g.WritePNG(w)
}

func panelTitle(row, col string) string {
	switch {
	case row == "":
		return col
	case col == "":
		return row
	}
	return col + "\n" + row
}

func newScatter(xys plotter.XYs, c color.Color) (*plotter.Scatter, error) {
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = vg.Points(pointRadius)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	return sc, nil
}

// colorPalette returns n distinguishable colors.
func colorPalette(n int) []color.Color {
	const maxQualitative = 9
	if n <= maxQualitative {
		// Set1 has between 3 and 9 colors.
		m := n
		if m < 3 {
			m = 3
		}
		if p, err := brewer.GetPalette(brewer.TypeQualitative, "Set1", m); err == nil {
			return p.Colors()[:n]
		}
	}
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = plotutil.Color(i)
	}
	return colors
}

type axisRange struct {
	min, max float64
}

func newRange() *axisRange {
	return &axisRange{math.Inf(1), math.Inf(-1)}
}

func (r *axisRange) add(v float64) {
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

// bounds returns a non-empty range covering every added value. For
// an empty range it returns a unit range valid on either scale.
func (r *axisRange) bounds(log bool) (min, max float64) {
	min, max = r.min, r.max
	switch {
	case min > max:
		if log {
			return 1, 10
		}
		return 0, 1
	case min < max:
		return min, max
	case log:
		return min / 2, max * 2
	}
	return min - 1, max + 1
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

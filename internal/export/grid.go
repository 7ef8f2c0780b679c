package export

import (
	"math"
	"strings"

	"velo/internal/geom"
	"velo/internal/model"
)

// Size of one terminal character in canvas units.
const (
	CellWidth  = 8
	CellHeight = 16
)

// Grid is a rune canvas addressed by column and row, row 0 at the top.
type Grid struct {
	cells      [][]rune
	cols, rows int
}

func NewGrid(cols, rows int) *Grid {
	cols, rows = max(cols, 0), max(rows, 0)
	g := &Grid{cells: make([][]rune, rows), cols: cols, rows: rows}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", cols))
	}
	return g
}

func (g *Grid) Size() (cols, rows int) { return g.cols, g.rows }

func (g *Grid) in(x, y int) bool { return x >= 0 && y >= 0 && x < g.cols && y < g.rows }

func (g *Grid) Set(x, y int, r rune) {
	if g.in(x, y) {
		g.cells[y][x] = r
	}
}

func (g *Grid) At(x, y int) rune {
	if !g.in(x, y) {
		return 0
	}
	return g.cells[y][x]
}

// Write puts s on row y starting at column x, stopping before column limit.
func (g *Grid) Write(x, y int, s string, limit int) {
	for _, r := range s {
		if x >= limit {
			return
		}
		g.Set(x, y, r)
		x++
	}
}

// Lines returns every row padded to the full width.
func (g *Grid) Lines() []string {
	out := make([]string, g.rows)
	for y, row := range g.cells {
		out[y] = string(row)
	}
	return out
}

// CellRect is an inclusive range of cells.
type CellRect struct{ X0, Y0, X1, Y1 int }

func (r CellRect) Width() int  { return r.X1 - r.X0 + 1 }
func (r CellRect) Height() int { return r.Y1 - r.Y0 + 1 }

func (r CellRect) Contains(x, y int) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Anchor is the cell just outside the border on side a.
func (r CellRect) Anchor(a geom.Anchor) (x, y int) {
	midX, midY := (r.X0+r.X1)/2, (r.Y0+r.Y1)/2
	switch a {
	case geom.Top:
		return midX, r.Y0 - 1
	case geom.Bottom:
		return midX, r.Y1 + 1
	case geom.Left:
		return r.X0 - 1, midY
	default:
		return r.X1 + 1, midY
	}
}

// Projection maps canvas units (origin bottom-left) to grid cells. Origin
// is the canvas point drawn at the top-left corner of cell (0, 0).
type Projection struct {
	Origin geom.Point
}

func (p Projection) Col(x float64) int {
	return int(math.Round((x - p.Origin.X) / CellWidth))
}

func (p Projection) Row(y float64) int {
	return int(math.Round((p.Origin.Y - y) / CellHeight))
}

// Rect covers b with at least two cells in each direction so the border
// always shows.
func (p Projection) Rect(b geom.Box) CellRect {
	r := CellRect{
		X0: p.Col(b.X),
		Y0: p.Row(b.Top()),
		X1: p.Col(b.Right()) - 1,
		Y1: p.Row(b.Y) - 1,
	}
	r.X1 = max(r.X1, r.X0+1)
	r.Y1 = max(r.Y1, r.Y0+1)
	return r
}

// Box draws a bordered rectangle with text laid out at pos. The interior
// is cleared first so boxes hide whatever lies beneath them.
func (g *Grid) Box(r CellRect, text string, pos model.TextPos, selected bool) {
	corner, horizontal, vertical := '+', '-', '|'
	if selected {
		corner, horizontal, vertical = '#', '#', '#'
	}
	for y := r.Y0; y <= r.Y1; y++ {
		for x := r.X0; x <= r.X1; x++ {
			switch {
			case (y == r.Y0 || y == r.Y1) && (x == r.X0 || x == r.X1):
				g.Set(x, y, corner)
			case y == r.Y0 || y == r.Y1:
				g.Set(x, y, horizontal)
			case x == r.X0 || x == r.X1:
				g.Set(x, y, vertical)
			default:
				g.Set(x, y, ' ')
			}
		}
	}

	innerW, innerH := r.Width()-2, r.Height()-2
	if innerW <= 0 || innerH <= 0 {
		return
	}
	lines := Wrap(text, innerW)
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	top := r.Y0 + 1
	switch pos {
	case model.TextCenter:
		top += (innerH - len(lines)) / 2
	case model.TextBottomLeft, model.TextBottomRight:
		top += innerH - len(lines)
	}
	for i, line := range lines {
		n := len([]rune(line))
		x := r.X0 + 1
		switch pos {
		case model.TextCenter:
			x += (innerW - n) / 2
		case model.TextTopRight, model.TextBottomRight:
			x += innerW - n
		}
		g.Write(x, top+i, line, r.X1)
	}
}

// Wrap breaks text into lines no wider than width runes, preferring
// spaces.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		line := []rune{}
		for _, word := range strings.Fields(para) {
			w := []rune(word)
			for len(w) > width {
				if len(line) > 0 {
					out = append(out, string(line))
					line = line[:0]
				}
				out = append(out, string(w[:width]))
				w = w[width:]
			}
			switch {
			case len(line) == 0:
				line = append(line, w...)
			case len(line)+1+len(w) <= width:
				line = append(append(line, ' '), w...)
			default:
				out = append(out, string(line))
				line = append([]rune{}, w...)
			}
		}
		out = append(out, string(line))
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}

// Arrow routes an orthogonal line between two anchor cells: horizontal
// first when it leaves a left or right side, vertical first otherwise.
func (g *Grid) Arrow(x0, y0 int, from geom.Anchor, x1, y1 int, style model.ArrowStyle) {
	horizontal, vertical := '-', '|'
	if style.Parallel() {
		horizontal, vertical = '=', '‖'
	}

	var path [][2]int
	step := func(x, y int) { path = append(path, [2]int{x, y}) }
	x, y := x0, y0
	step(x, y)
	walkX := func() {
		for x != x1 {
			x += sign(x1 - x)
			step(x, y)
		}
	}
	walkY := func() {
		for y != y1 {
			y += sign(y1 - y)
			step(x, y)
		}
	}
	if from == geom.Left || from == geom.Right {
		walkX()
		walkY()
	} else {
		walkY()
		walkX()
	}

	for i, p := range path {
		r := horizontal
		switch {
		case i > 0 && i < len(path)-1 && turns(path[i-1], p, path[i+1]):
			r = '+'
		case i > 0 && path[i-1][0] == p[0], i == 0 && len(path) > 1 && path[1][0] == p[0]:
			r = vertical
		}
		g.Set(p[0], p[1], r)
	}

	end, start := style.Heads()
	if end {
		if len(path) > 1 {
			g.Set(x1, y1, head(path[len(path)-2], path[len(path)-1]))
		} else {
			g.Set(x1, y1, headToward(from, true))
		}
	}
	if start {
		if len(path) > 1 {
			g.Set(x0, y0, head(path[1], path[0]))
		} else {
			g.Set(x0, y0, headToward(from, false))
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func turns(a, b, c [2]int) bool {
	return (a[0] == b[0]) != (b[0] == c[0])
}

// head points from a toward b.
func head(a, b [2]int) rune {
	switch {
	case b[0] > a[0]:
		return '>'
	case b[0] < a[0]:
		return '<'
	case b[1] > a[1]:
		return 'v'
	default:
		return '^'
	}
}

// headToward is the head for a single-cell arrow leaving side a; inward
// heads point back at the node.
func headToward(a geom.Anchor, outward bool) rune {
	heads := map[geom.Anchor][2]rune{
		geom.Top:    {'^', 'v'},
		geom.Bottom: {'v', '^'},
		geom.Left:   {'<', '>'},
		geom.Right:  {'>', '<'},
	}
	if outward {
		return heads[a][0]
	}
	return heads[a][1]
}

package export

import (
	"bufio"
	"io"
	"strings"

	"velo/internal/geom"
	"velo/internal/model"
)

// Draw renders cp onto g through p. Arrows go first so boxes cover their
// ends; selected is drawn with a heavy border.
func Draw(g *Grid, p Projection, cp *model.Checkpoint, ext geom.Point, selected int) {
	rects := make(map[int]CellRect, cp.NodeCount())
	for _, n := range cp.Nodes() {
		rects[n.ID] = p.Rect(n.Rect.Resolve(ext.X, ext.Y))
	}
	for _, a := range cp.Arrows() {
		from, ok1 := rects[a.From.Node]
		to, ok2 := rects[a.To.Node]
		if !ok1 || !ok2 {
			continue
		}
		x0, y0 := from.Anchor(a.From.Anchor)
		x1, y1 := to.Anchor(a.To.Anchor)
		g.Arrow(x0, y0, a.From.Anchor, x1, y1, a.Style)
	}
	for _, n := range cp.Nodes() {
		text := n.Text
		if n.Kind == model.KindImage && text == "" {
			text = "[image]"
		}
		if len(n.Tags) > 0 {
			text += "\n#" + strings.Join(n.Tags, " #")
		}
		g.Box(rects[n.ID], text, n.TextPos, n.ID == selected)
	}
}

// Text writes cp as an ASCII drawing, one terminal cell per character.
func Text(w io.Writer, cp *model.Checkpoint, opts Options) error {
	opts = opts.withDefaults()
	b := measure(cp, opts.Extent)
	if !b.ok {
		return ErrEmpty
	}
	b = b.pad(opts.Padding)
	p := Projection{Origin: geom.Point{X: b.minX, Y: b.maxY}}
	g := NewGrid(p.Col(b.maxX)+1, p.Row(b.minY)+1)
	Draw(g, p, cp, opts.Extent, 0)

	lines := g.Lines()
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		bw.WriteString(strings.TrimRight(line, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

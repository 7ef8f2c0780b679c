package tui

import (
	"cmp"
	"maps"
	"slices"

	"velo/internal/engine"
	"velo/internal/export"
	"velo/internal/geom"
	"velo/internal/interact"
)

// Renderer keeps the visuals the engine spawns until the next frame draws
// them.
type Renderer struct {
	next   engine.Handle
	nodes  map[engine.Handle]engine.NodeVisual
	arrows map[engine.Handle]engine.ArrowVisual
	cursor interact.Cursor
}

func NewRenderer() *Renderer {
	return &Renderer{
		nodes:  make(map[engine.Handle]engine.NodeVisual),
		arrows: make(map[engine.Handle]engine.ArrowVisual),
	}
}

func (r *Renderer) SpawnNode(v engine.NodeVisual) engine.Handle {
	r.next++
	r.nodes[r.next] = v
	return r.next
}

func (r *Renderer) SpawnArrow(v engine.ArrowVisual) engine.Handle {
	r.next++
	r.arrows[r.next] = v
	return r.next
}

func (r *Renderer) Despawn(h engine.Handle) {
	delete(r.nodes, h)
	delete(r.arrows, h)
}

func (r *Renderer) SetCursor(c interact.Cursor) { r.cursor = c }

// Nodes returns the node visuals bottom to top.
func (r *Renderer) Nodes() []engine.NodeVisual {
	hs := slices.SortedFunc(maps.Keys(r.nodes), func(a, b engine.Handle) int {
		return cmp.Or(cmp.Compare(r.nodes[a].Z, r.nodes[b].Z), cmp.Compare(a, b))
	})
	out := make([]engine.NodeVisual, len(hs))
	for i, h := range hs {
		out[i] = r.nodes[h]
	}
	return out
}

func (r *Renderer) Arrows() []engine.ArrowVisual {
	out := slices.Collect(maps.Values(r.arrows))
	slices.SortFunc(out, func(a, b engine.ArrowVisual) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// anchorCell is the cell just outside a node side whose midpoint is p.
func anchorCell(proj export.Projection, p geom.Point, a geom.Anchor) (col, row int) {
	col, row = proj.Col(p.X), proj.Row(p.Y)
	switch a {
	case geom.Left:
		col--
	case geom.Top:
		row--
	}
	return col, row
}

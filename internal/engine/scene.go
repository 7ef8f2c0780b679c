package engine

import (
	"velo/internal/geom"
	"velo/internal/interact"
	"velo/internal/model"
)

// Handle identifies a spawned visual.
type Handle uint64

// NodeVisual is everything a renderer needs to draw one node. Box is in
// canvas units (origin bottom-left of the canvas).
type NodeVisual struct {
	ID      int
	Box     geom.Box
	Text    string
	TextPos model.TextPos
	BgColor string
	Tags    []string
	Z       int
	Image   *model.ImageRef
	Kind    model.Kind
}

// ArrowVisual is a connection between two anchor points in canvas units.
type ArrowVisual struct {
	ID         int
	From, To   geom.Point
	FromAnchor geom.Anchor
	ToAnchor   geom.Anchor
	Style      model.ArrowStyle
}

// Renderer creates and destroys visuals. It never reports back to the
// engine.
type Renderer interface {
	SpawnNode(NodeVisual) Handle
	SpawnArrow(ArrowVisual) Handle
	Despawn(Handle)
	SetCursor(interact.Cursor)
}

// NopRenderer draws nothing.
type NopRenderer struct{ next Handle }

func (r *NopRenderer) SpawnNode(NodeVisual) Handle   { r.next++; return r.next }
func (r *NopRenderer) SpawnArrow(ArrowVisual) Handle { r.next++; return r.next }
func (r *NopRenderer) Despawn(Handle)                {}
func (r *NopRenderer) SetCursor(interact.Cursor)     {}

// Scene keeps the renderer in step with the live checkpoint.
type Scene struct {
	r      Renderer
	nodes  map[int]Handle
	arrows map[int]Handle
}

func NewScene(r Renderer) *Scene {
	return &Scene{r: r, nodes: make(map[int]Handle), arrows: make(map[int]Handle)}
}

// NodeVisualOf resolves n against a canvas extent.
func NodeVisualOf(n model.Node, ext geom.Point) NodeVisual {
	return NodeVisual{
		ID:      n.ID,
		Box:     n.Rect.Resolve(ext.X, ext.Y),
		Text:    n.Text,
		TextPos: n.TextPos,
		BgColor: n.BgColor,
		Tags:    n.Tags,
		Z:       n.Z,
		Image:   n.Image,
		Kind:    n.Kind,
	}
}

// ArrowVisualOf resolves a's endpoints. ok is false if an endpoint is
// missing from cp.
func ArrowVisualOf(cp *model.Checkpoint, a model.Arrow, ext geom.Point) (ArrowVisual, bool) {
	from, ok1 := cp.Node(a.From.Node)
	to, ok2 := cp.Node(a.To.Node)
	if !ok1 || !ok2 {
		return ArrowVisual{}, false
	}
	return ArrowVisual{
		ID:         a.ID,
		From:       from.Rect.Resolve(ext.X, ext.Y).AnchorPoint(a.From.Anchor),
		To:         to.Rect.Resolve(ext.X, ext.Y).AnchorPoint(a.To.Anchor),
		FromAnchor: a.From.Anchor,
		ToAnchor:   a.To.Anchor,
		Style:      a.Style,
	}, true
}

// Clear despawns everything.
func (s *Scene) Clear() {
	for id, h := range s.nodes {
		s.r.Despawn(h)
		delete(s.nodes, id)
	}
	for id, h := range s.arrows {
		s.r.Despawn(h)
		delete(s.arrows, id)
	}
}

// Rebuild despawns everything and spawns cp in draw order.
func (s *Scene) Rebuild(cp *model.Checkpoint, ext geom.Point) {
	s.Clear()
	for _, n := range cp.Nodes() {
		s.nodes[n.ID] = s.r.SpawnNode(NodeVisualOf(n, ext))
	}
	for _, a := range cp.Arrows() {
		s.AddArrow(cp, a, ext)
	}
}

// UpdateNode respawns one node and the arrows attached to it.
func (s *Scene) UpdateNode(cp *model.Checkpoint, id int, ext geom.Point) {
	s.RemoveNode(id)
	if n, ok := cp.Node(id); ok {
		s.nodes[id] = s.r.SpawnNode(NodeVisualOf(n, ext))
	}
	s.RedrawArrows(cp, id, ext)
}

func (s *Scene) RemoveNode(id int) {
	if h, ok := s.nodes[id]; ok {
		s.r.Despawn(h)
		delete(s.nodes, id)
	}
}

// RedrawArrows respawns the arrows attached to node.
func (s *Scene) RedrawArrows(cp *model.Checkpoint, node int, ext geom.Point) {
	for _, a := range cp.ArrowsOf(node) {
		s.RemoveArrow(a.ID)
		s.AddArrow(cp, a, ext)
	}
}

func (s *Scene) AddArrow(cp *model.Checkpoint, a model.Arrow, ext geom.Point) {
	if v, ok := ArrowVisualOf(cp, a, ext); ok {
		s.arrows[a.ID] = s.r.SpawnArrow(v)
	}
}

func (s *Scene) RemoveArrow(id int) {
	if h, ok := s.arrows[id]; ok {
		s.r.Despawn(h)
		delete(s.arrows, id)
	}
}

// Len reports how many node and arrow visuals are alive.
func (s *Scene) Len() (nodes, arrows int) { return len(s.nodes), len(s.arrows) }

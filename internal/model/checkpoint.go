package model

import (
	"fmt"
	"slices"
	"sort"
)

// Checkpoint is the content of one tab at one point in time. A tab's live
// canvas is a Checkpoint too; history entries are clones of it.
type Checkpoint struct {
	nodes      map[int]Node
	nodeOrder  []int
	arrows     map[int]Arrow
	arrowOrder []int
}

func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		nodes:  make(map[int]Node),
		arrows: make(map[int]Arrow),
	}
}

func (c *Checkpoint) Node(id int) (Node, bool) {
	n, ok := c.nodes[id]
	return n, ok
}

func (c *Checkpoint) Arrow(id int) (Arrow, bool) {
	a, ok := c.arrows[id]
	return a, ok
}

func (c *Checkpoint) NodeCount() int  { return len(c.nodes) }
func (c *Checkpoint) ArrowCount() int { return len(c.arrows) }

// PutNode inserts n or replaces the node with the same id. Replacing keeps
// the original insertion slot.
func (c *Checkpoint) PutNode(n Node) {
	if _, ok := c.nodes[n.ID]; !ok {
		c.nodeOrder = append(c.nodeOrder, n.ID)
	}
	c.nodes[n.ID] = n
}

// UpdateNode applies fn to the node with the given id.
func (c *Checkpoint) UpdateNode(id int, fn func(*Node)) error {
	n, ok := c.nodes[id]
	if !ok {
		return fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	fn(&n)
	n.ID = id
	c.nodes[id] = n
	return nil
}

// DeleteNode removes a node and every arrow attached to it. The removed
// arrows are returned so callers can despawn their visuals.
func (c *Checkpoint) DeleteNode(id int) ([]Arrow, error) {
	if _, ok := c.nodes[id]; !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	delete(c.nodes, id)
	c.nodeOrder = slices.DeleteFunc(c.nodeOrder, func(v int) bool { return v == id })

	var removed []Arrow
	for _, a := range c.Arrows() {
		if a.Touches(id) {
			removed = append(removed, a)
			c.removeArrow(a.ID)
		}
	}
	return removed, nil
}

// AddArrow stores a, provided both endpoints exist.
func (c *Checkpoint) AddArrow(a Arrow) error {
	for _, end := range []End{a.From, a.To} {
		if _, ok := c.nodes[end.Node]; !ok {
			return fmt.Errorf("arrow %d endpoint %d: %w", a.ID, end.Node, ErrNotFound)
		}
	}
	c.PutArrow(a)
	return nil
}

// PutArrow stores a without checking its endpoints. Decoders use it and
// leave dangling arrows to Prune.
func (c *Checkpoint) PutArrow(a Arrow) {
	if _, ok := c.arrows[a.ID]; !ok {
		c.arrowOrder = append(c.arrowOrder, a.ID)
	}
	c.arrows[a.ID] = a
}

func (c *Checkpoint) DeleteArrow(id int) error {
	if _, ok := c.arrows[id]; !ok {
		return fmt.Errorf("arrow %d: %w", id, ErrNotFound)
	}
	c.removeArrow(id)
	return nil
}

func (c *Checkpoint) removeArrow(id int) {
	delete(c.arrows, id)
	c.arrowOrder = slices.DeleteFunc(c.arrowOrder, func(v int) bool { return v == id })
}

// Nodes returns the nodes in draw order: ascending z, ties by insertion.
func (c *Checkpoint) Nodes() []Node {
	out := make([]Node, 0, len(c.nodeOrder))
	for _, id := range c.nodeOrder {
		out = append(out, c.nodes[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

// Arrows returns the arrows in insertion order.
func (c *Checkpoint) Arrows() []Arrow {
	out := make([]Arrow, 0, len(c.arrowOrder))
	for _, id := range c.arrowOrder {
		out = append(out, c.arrows[id])
	}
	return out
}

// ArrowsOf returns the arrows attached to a node.
func (c *Checkpoint) ArrowsOf(node int) []Arrow {
	var out []Arrow
	for _, a := range c.Arrows() {
		if a.Touches(node) {
			out = append(out, a)
		}
	}
	return out
}

// TopZ is the highest z-index in use, or -1 for an empty canvas.
func (c *Checkpoint) TopZ() int {
	top := -1
	for _, n := range c.nodes {
		top = max(top, n.Z)
	}
	return top
}

// MaxID is the largest node or arrow id present.
func (c *Checkpoint) MaxID() int {
	m := 0
	for id := range c.nodes {
		m = max(m, id)
	}
	for id := range c.arrows {
		m = max(m, id)
	}
	return m
}

// Prune drops arrows whose endpoints are gone and returns them.
func (c *Checkpoint) Prune() []Arrow {
	var dropped []Arrow
	for _, a := range c.Arrows() {
		_, from := c.nodes[a.From.Node]
		_, to := c.nodes[a.To.Node]
		if !from || !to {
			dropped = append(dropped, a)
			c.removeArrow(a.ID)
		}
	}
	return dropped
}

// Clone deep-copies the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	out := &Checkpoint{
		nodes:      make(map[int]Node, len(c.nodes)),
		nodeOrder:  slices.Clone(c.nodeOrder),
		arrows:     make(map[int]Arrow, len(c.arrows)),
		arrowOrder: slices.Clone(c.arrowOrder),
	}
	for id, n := range c.nodes {
		out.nodes[id] = n.Clone()
	}
	for id, a := range c.arrows {
		out.arrows[id] = a
	}
	return out
}

// Equal reports whether both checkpoints hold the same nodes and arrows in
// the same order.
func (c *Checkpoint) Equal(o *Checkpoint) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !slices.Equal(c.nodeOrder, o.nodeOrder) || !slices.Equal(c.arrowOrder, o.arrowOrder) {
		return false
	}
	for id, n := range c.nodes {
		if !n.Equal(o.nodes[id]) {
			return false
		}
	}
	for id, a := range c.arrows {
		if a != o.arrows[id] {
			return false
		}
	}
	return true
}

package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"velo/internal/geom"
)

// Kind tells rectangles from pasted images.
type Kind uint8

const (
	KindRect Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "rect"
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "rect", "":
		return KindRect, nil
	case "image":
		return KindImage, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// TextPos is where a node's text is anchored inside it.
type TextPos uint8

const (
	TextCenter TextPos = iota
	TextBottomRight
	TextBottomLeft
	TextTopRight
	TextTopLeft
)

var textPosNames = [...]string{
	TextCenter:      "center",
	TextBottomRight: "bottom-right",
	TextBottomLeft:  "bottom-left",
	TextTopRight:    "top-right",
	TextTopLeft:     "top-left",
}

func (p TextPos) String() string {
	if int(p) < len(textPosNames) {
		return textPosNames[p]
	}
	return "center"
}

func ParseTextPos(s string) (TextPos, error) {
	if s == "" {
		return TextCenter, nil
	}
	for i, name := range textPosNames {
		if name == s {
			return TextPos(i), nil
		}
	}
	return 0, fmt.Errorf("unknown text position %q", s)
}

// Next cycles through the text positions.
func (p TextPos) Next() TextPos {
	return TextPos((int(p) + 1) % len(textPosNames))
}

// ImageRef points at image bytes kept by the store.
type ImageRef struct {
	ID     uuid.UUID
	Width  int
	Height int
}

const DefaultBgColor = "#ffffff"

// Node is a rectangle or an image on a tab's canvas.
type Node struct {
	ID      int
	Kind    Kind
	Rect    geom.Rect
	Image   *ImageRef
	Text    string
	TextPos TextPos
	BgColor string
	Tags    []string
	Z       int

	// TextBounds is the wrapping area for Text; it follows the node size.
	TextBounds geom.Point
}

// NewNode returns a rectangle with absolute geometry.
func NewNode(id int, left, bottom, width, height float64) Node {
	return Node{
		ID:   id,
		Kind: KindRect,
		Rect: geom.Rect{
			Left:   geom.Abs(left),
			Bottom: geom.Abs(bottom),
			Width:  geom.Abs(width),
			Height: geom.Abs(height),
		},
		BgColor:    DefaultBgColor,
		TextBounds: geom.Point{X: width, Y: height},
	}
}

// Clone returns a copy that shares no memory with n.
func (n Node) Clone() Node {
	n.Tags = slices.Clone(n.Tags)
	if n.Image != nil {
		img := *n.Image
		n.Image = &img
	}
	return n
}

func (n Node) Equal(o Node) bool {
	if (n.Image == nil) != (o.Image == nil) || n.Image != nil && *n.Image != *o.Image {
		return false
	}
	return n.ID == o.ID &&
		n.Kind == o.Kind &&
		n.Rect == o.Rect &&
		n.Text == o.Text &&
		n.TextPos == o.TextPos &&
		n.BgColor == o.BgColor &&
		n.Z == o.Z &&
		n.TextBounds == o.TextBounds &&
		slices.Equal(n.Tags, o.Tags)
}

// SetRect updates geometry and keeps the text bounds in step with it.
func (n *Node) SetRect(r geom.Rect) {
	n.Rect = r
	if r.Width.IsAbs() {
		n.TextBounds.X = r.Width.Value
	}
	if r.Height.IsAbs() {
		n.TextBounds.Y = r.Height.Value
	}
}

// AddTag appends tag unless present.
func (n *Node) AddTag(tag string) bool {
	if tag == "" || slices.Contains(n.Tags, tag) {
		return false
	}
	n.Tags = append(n.Tags, tag)
	return true
}

func (n *Node) RemoveTag(tag string) bool {
	i := slices.Index(n.Tags, tag)
	if i < 0 {
		return false
	}
	n.Tags = slices.Delete(n.Tags, i, i+1)
	return true
}

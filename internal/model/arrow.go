package model

import (
	"fmt"

	"velo/internal/geom"
)

// ArrowStyle is the way a connection is drawn.
type ArrowStyle uint8

const (
	StyleLine ArrowStyle = iota
	StyleArrow
	StyleDoubleArrow
	StyleParallelLine
	StyleParallelArrow
	StyleParallelDoubleArrow
)

var styleNames = [...]string{
	StyleLine:                "line",
	StyleArrow:               "arrow",
	StyleDoubleArrow:         "double-arrow",
	StyleParallelLine:        "parallel-line",
	StyleParallelArrow:       "parallel-arrow",
	StyleParallelDoubleArrow: "parallel-double-arrow",
}

func (s ArrowStyle) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "line"
}

func ParseArrowStyle(s string) (ArrowStyle, error) {
	for i, name := range styleNames {
		if name == s {
			return ArrowStyle(i), nil
		}
	}
	return 0, fmt.Errorf("unknown arrow style %q", s)
}

func (s ArrowStyle) Next() ArrowStyle {
	return ArrowStyle((int(s) + 1) % len(styleNames))
}

// Parallel styles render as an orthogonal elbow instead of a straight line.
func (s ArrowStyle) Parallel() bool {
	return s >= StyleParallelLine
}

// Heads reports whether the end and start carry an arrowhead.
func (s ArrowStyle) Heads() (end, start bool) {
	switch s {
	case StyleArrow, StyleParallelArrow:
		return true, false
	case StyleDoubleArrow, StyleParallelDoubleArrow:
		return true, true
	}
	return false, false
}

// End is one side of an arrow.
type End struct {
	Node   int
	Anchor geom.Anchor
}

type Arrow struct {
	ID    int
	From  End
	To    End
	Style ArrowStyle
}

func (a Arrow) Touches(node int) bool {
	return a.From.Node == node || a.To.Node == node
}

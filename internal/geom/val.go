// Package geom holds the coordinate types shared by the model, the
// interaction layer and the renderers. Every length is a Val so callers have
// to say whether they mean canvas units or a share of some container.
package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit tags a Val.
type Unit uint8

const (
	Px Unit = iota
	Percent
)

func (u Unit) String() string {
	switch u {
	case Px:
		return "px"
	case Percent:
		return "%"
	default:
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
}

// Val is a length in absolute canvas units or in percent of a reference
// extent. The zero value is 0px.
type Val struct {
	Unit  Unit
	Value float64
}

func Abs(v float64) Val { return Val{Unit: Px, Value: v} }
func Pct(v float64) Val { return Val{Unit: Percent, Value: v} }

func (v Val) IsAbs() bool { return v.Unit == Px }

// ToAbsolute resolves v against extent. Absolute values are returned as is.
func ToAbsolute(v Val, extent float64) Val {
	if v.Unit == Percent {
		return Abs(v.Value * extent / 100)
	}
	return v
}

// Units is ToAbsolute(v, extent).Value.
func (v Val) Units(extent float64) float64 {
	return ToAbsolute(v, extent).Value
}

// Add returns v shifted by d units. Percent values are left alone.
func (v Val) Add(d float64) Val {
	if v.Unit != Px {
		return v
	}
	return Abs(v.Value + d)
}

func (v Val) String() string {
	return strconv.FormatFloat(v.Value, 'f', -1, 64) + v.Unit.String()
}

func (v Val) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Val) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	unit := Px
	switch {
	case strings.HasSuffix(s, "%"):
		unit = Percent
		s = strings.TrimSuffix(s, "%")
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse length %q: %w", string(b), err)
	}
	*v = Val{Unit: unit, Value: f}
	return nil
}

// Point is a position or a delta in canvas units. Y grows upwards for
// positions on the canvas; pointer deltas use screen orientation (down is
// positive).
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

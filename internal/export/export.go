// Package export renders a tab's checkpoint outside the editor, as a PNG
// image or as the plain-text drawing the terminal editor shows.
package export

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"velo/internal/geom"
	"velo/internal/model"
)

var ErrEmpty = errors.New("nothing to export")

// DefaultExtent resolves percentage geometry when no window is around.
var DefaultExtent = geom.Point{X: 1280, Y: 720}

// ImageSource provides the PNG bytes of pasted images. store.Store
// satisfies it.
type ImageSource interface {
	LoadImage(ctx context.Context, id uuid.UUID) ([]byte, error)
}

type Options struct {
	// Extent is the canvas size percentage geometry resolves against.
	Extent geom.Point
	// Padding is added around the drawing, in canvas units.
	Padding float64
}

func (o Options) withDefaults() Options {
	if o.Extent == (geom.Point{}) {
		o.Extent = DefaultExtent
	}
	if o.Padding <= 0 {
		o.Padding = 2 * CellHeight
	}
	return o
}

// bounds is the union of node boxes in canvas units. Arrows end on node
// edges so they never reach outside it.
type bounds struct {
	minX, minY, maxX, maxY float64
	ok                     bool
}

func (b *bounds) add(p geom.Point) {
	if !b.ok {
		*b = bounds{minX: p.X, minY: p.Y, maxX: p.X, maxY: p.Y, ok: true}
		return
	}
	b.minX, b.minY = math.Min(b.minX, p.X), math.Min(b.minY, p.Y)
	b.maxX, b.maxY = math.Max(b.maxX, p.X), math.Max(b.maxY, p.Y)
}

func (b bounds) pad(d float64) bounds {
	return bounds{minX: b.minX - d, minY: b.minY - d, maxX: b.maxX + d, maxY: b.maxY + d, ok: b.ok}
}

func measure(cp *model.Checkpoint, ext geom.Point) bounds {
	var b bounds
	for _, n := range cp.Nodes() {
		box := n.Rect.Resolve(ext.X, ext.Y)
		b.add(geom.Point{X: box.X, Y: box.Y})
		b.add(geom.Point{X: box.Right(), Y: box.Top()})
	}
	return b
}

package geom

// MinSize is the smallest width or height an interactive resize may leave.
const MinSize = 1.0

// Rect is a node's placement. Left and Bottom are measured from the
// bottom-left corner of the canvas.
type Rect struct {
	Left, Bottom  Val
	Width, Height Val
}

// Box is a Rect resolved to absolute units.
type Box struct {
	X, Y, W, H float64
}

// Resolve converts r to absolute units against a canvas of w by h.
func (r Rect) Resolve(w, h float64) Box {
	return Box{
		X: r.Left.Units(w),
		Y: r.Bottom.Units(h),
		W: r.Width.Units(w),
		H: r.Height.Units(h),
	}
}

func (b Box) Right() float64 { return b.X + b.W }
func (b Box) Top() float64   { return b.Y + b.H }

func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.Right() && p.Y >= b.Y && p.Y <= b.Top()
}

func (b Box) Center() Point {
	return Point{b.X + b.W/2, b.Y + b.H/2}
}

// CornerPoint returns the canvas position of corner c.
func (b Box) CornerPoint(c Corner) Point {
	switch c {
	case TopLeft:
		return Point{b.X, b.Top()}
	case TopRight:
		return Point{b.Right(), b.Top()}
	case BottomLeft:
		return Point{b.X, b.Y}
	default:
		return Point{b.Right(), b.Y}
	}
}

// AnchorPoint returns the midpoint of side a.
func (b Box) AnchorPoint(a Anchor) Point {
	switch a {
	case Top:
		return Point{b.X + b.W/2, b.Top()}
	case Left:
		return Point{b.X, b.Y + b.H/2}
	case Bottom:
		return Point{b.X + b.W/2, b.Y}
	default:
		return Point{b.Right(), b.Y + b.H/2}
	}
}

// Corner names a resize handle.
type Corner uint8

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

var Corners = [...]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "corner?"
	}
}

// Falling reports whether the corner sits on the NW-SE diagonal.
func (c Corner) Falling() bool {
	return c == TopLeft || c == BottomRight
}

// Anchor names a side of a node for arrow attachment.
type Anchor uint8

const (
	Top Anchor = iota
	Left
	Bottom
	Right
)

var Anchors = [...]Anchor{Top, Left, Bottom, Right}

func (a Anchor) String() string {
	switch a {
	case Top:
		return "top"
	case Left:
		return "left"
	case Bottom:
		return "bottom"
	case Right:
		return "right"
	default:
		return "anchor?"
	}
}

// ParseAnchor is the inverse of Anchor.String.
func ParseAnchor(s string) (Anchor, bool) {
	for _, a := range Anchors {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

// resizeSigns encodes how a pointer delta feeds each field per corner.
var resizeSigns = [...]struct {
	w, h         float64
	left, bottom bool
}{
	TopLeft:     {w: -1, h: -1, left: true},
	TopRight:    {w: +1, h: -1},
	BottomLeft:  {w: -1, h: +1, left: true, bottom: true},
	BottomRight: {w: +1, h: +1, bottom: true},
}

// ApplyResize grows or shrinks r from corner c by the pointer delta d
// (screen orientation, dy positive downwards). The opposite corner stays put.
// Axes whose size is a percentage are left untouched, and sizes never drop
// below MinSize; when clamped the position moves by the clamped amount only.
func ApplyResize(c Corner, d Point, r Rect) Rect {
	if int(c) >= len(resizeSigns) {
		return r
	}
	s := resizeSigns[c]
	if r.Width.IsAbs() {
		dw := clampGrow(r.Width.Value, s.w*d.X)
		r.Width = Abs(r.Width.Value + dw)
		if s.left {
			r.Left = r.Left.Add(-dw)
		}
	}
	if r.Height.IsAbs() {
		dh := clampGrow(r.Height.Value, s.h*d.Y)
		r.Height = Abs(r.Height.Value + dh)
		if s.bottom {
			r.Bottom = r.Bottom.Add(-dh)
		}
	}
	return r
}

func clampGrow(size, grow float64) float64 {
	if size+grow < MinSize {
		grow = MinSize - size
	}
	return grow
}

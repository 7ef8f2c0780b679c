package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"velo/internal/geom"
	"velo/internal/model"
)

const (
	fontSize  = 12.0
	textInset = 4.0
	arrowSize = 8.0
)

var monoFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// ParseColor reads a #rrggbb node colour, falling back to white.
func ParseColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return c
}

// TextColor picks black or white, whichever reads better on bg.
func TextColor(bg colorful.Color) colorful.Color {
	if l, _, _ := bg.Lab(); l < 0.55 {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return colorful.Color{}
}

// pixels maps canvas units onto the image, flipping y.
type pixels struct{ b bounds }

func (p pixels) pt(q geom.Point) (float64, float64) {
	return q.X - p.b.minX, p.b.maxY - q.Y
}

// PNG renders cp at one pixel per canvas unit. Pasted images are fetched
// from images; a missing one is drawn as a placeholder.
func PNG(ctx context.Context, w io.Writer, cp *model.Checkpoint, images ImageSource, opts Options) error {
	opts = opts.withDefaults()
	b := measure(cp, opts.Extent)
	if !b.ok {
		return ErrEmpty
	}
	b = b.pad(opts.Padding)
	px := pixels{b: b}

	width := int(math.Ceil(b.maxX - b.minX))
	height := int(math.Ceil(b.maxY - b.minY))
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	ttf, err := monoFont()
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	for _, a := range cp.Arrows() {
		from, ok1 := cp.Node(a.From.Node)
		to, ok2 := cp.Node(a.To.Node)
		if !ok1 || !ok2 {
			continue
		}
		x1, y1 := px.pt(from.Rect.Resolve(opts.Extent.X, opts.Extent.Y).AnchorPoint(a.From.Anchor))
		x2, y2 := px.pt(to.Rect.Resolve(opts.Extent.X, opts.Extent.Y).AnchorPoint(a.To.Anchor))
		drawArrowPNG(dc, x1, y1, x2, y2, a.Style)
	}

	for _, n := range cp.Nodes() {
		box := n.Rect.Resolve(opts.Extent.X, opts.Extent.Y)
		x, y := px.pt(geom.Point{X: box.X, Y: box.Top()})
		var img image.Image
		if n.Kind == model.KindImage && n.Image != nil && images != nil {
			img = loadImage(ctx, images, n.Image, box)
		}
		drawNodePNG(dc, n, x, y, box.W, box.H, img)
	}
	return dc.EncodePNG(w)
}

func loadImage(ctx context.Context, images ImageSource, ref *model.ImageRef, box geom.Box) image.Image {
	data, err := images.LoadImage(ctx, ref.ID)
	if err != nil {
		return nil
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	w, h := max(int(box.W), 1), max(int(box.H), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func drawNodePNG(dc *gg.Context, n model.Node, x, y, w, h float64, img image.Image) {
	bg := ParseColor(n.BgColor)
	dc.SetColor(bg)
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()

	switch {
	case img != nil:
		dc.DrawImage(img, int(x), int(y))
	case n.Kind == model.KindImage:
		dc.SetColor(color.Gray{Y: 0x99})
		dc.DrawStringAnchored("missing image", x+w/2, y+h/2, 0.5, 0.5)
	}

	dc.SetLineWidth(1.0)
	dc.SetColor(color.Black)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	text := n.Text
	if len(n.Tags) > 0 {
		text = strings.TrimSpace(text + "\n#" + strings.Join(n.Tags, " #"))
	}
	if text == "" {
		return
	}
	dc.SetColor(TextColor(bg))
	tx, ty, ax, ay, align := textAnchor(n.TextPos, x, y, w, h)
	dc.DrawStringWrapped(text, tx, ty, ax, ay, max(w-2*textInset, 1), 1.2, align)
}

func textAnchor(pos model.TextPos, x, y, w, h float64) (tx, ty, ax, ay float64, align gg.Align) {
	left, right := x+textInset, x+w-textInset
	top, bottom := y+textInset, y+h-textInset
	switch pos {
	case model.TextTopLeft:
		return left, top, 0, 0, gg.AlignLeft
	case model.TextTopRight:
		return right, top, 1, 0, gg.AlignRight
	case model.TextBottomLeft:
		return left, bottom, 0, 1, gg.AlignLeft
	case model.TextBottomRight:
		return right, bottom, 1, 1, gg.AlignRight
	default:
		return x + w/2, y + h/2, 0.5, 0.5, gg.AlignCenter
	}
}

func drawArrowPNG(dc *gg.Context, x1, y1, x2, y2 float64, style model.ArrowStyle) {
	dc.SetColor(color.Black)
	dc.SetLineWidth(1.0)
	if style.Parallel() {
		ox, oy := normal(x1, y1, x2, y2, 2)
		dc.DrawLine(x1+ox, y1+oy, x2+ox, y2+oy)
		dc.DrawLine(x1-ox, y1-oy, x2-ox, y2-oy)
	} else {
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	end, start := style.Heads()
	if end {
		drawHead(dc, x1, y1, x2, y2)
	}
	if start {
		drawHead(dc, x2, y2, x1, y1)
	}
}

// normal is the perpendicular of the segment scaled to length d.
func normal(x1, y1, x2, y2, d float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	l := math.Hypot(dx, dy)
	if l < 0.1 {
		return 0, 0
	}
	return -dy / l * d, dx / l * d
}

func drawHead(dc *gg.Context, fx, fy, tx, ty float64) {
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const spread = 0.5
	dc.MoveTo(tx, ty)
	dc.LineTo(tx-arrowSize*dx+arrowSize*dy*spread, ty-arrowSize*dy-arrowSize*dx*spread)
	dc.LineTo(tx-arrowSize*dx-arrowSize*dy*spread, ty-arrowSize*dy+arrowSize*dx*spread)
	dc.ClosePath()
	dc.Fill()
}

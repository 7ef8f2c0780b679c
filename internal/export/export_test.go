package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velo/internal/geom"
	"velo/internal/model"
	"velo/internal/store"
)

func pair(t *testing.T, style model.ArrowStyle) *model.Checkpoint {
	t.Helper()
	cp := model.NewCheckpoint()
	a := model.NewNode(1, 0, 0, 80, 48)
	a.Text = "A"
	b := model.NewNode(2, 160, 0, 80, 48)
	b.Text = "B"
	cp.PutNode(a)
	cp.PutNode(b)
	require.NoError(t, cp.AddArrow(model.Arrow{
		ID:    3,
		From:  model.End{Node: 1, Anchor: geom.Right},
		To:    model.End{Node: 2, Anchor: geom.Left},
		Style: style,
	}))
	return cp
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, pair(t, model.StyleArrow), Options{}))
	want := "\n\n" +
		"    +--------+          +--------+\n" +
		"    |   A    |--------->|   B    |\n" +
		"    +--------+          +--------+\n"
	assert.Equal(t, want, buf.String())
}

func TestTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Text(&buf, model.NewCheckpoint(), Options{}), ErrEmpty)
}

func TestGridArrowRouting(t *testing.T) {
	g := NewGrid(7, 4)
	g.Arrow(2, 0, geom.Bottom, 5, 3, model.StyleArrow)
	assert.Equal(t, []string{
		"  |    ",
		"  |    ",
		"  |    ",
		"  +--> ",
	}, g.Lines())

	g = NewGrid(6, 1)
	g.Arrow(0, 0, geom.Right, 5, 0, model.StyleParallelDoubleArrow)
	assert.Equal(t, []string{"<====>"}, g.Lines())
}

func TestGridBoxTextPositions(t *testing.T) {
	tests := []struct {
		pos  model.TextPos
		want []string
	}{
		{model.TextCenter, []string{"+----+", "|    |", "| ab |", "|    |", "+----+"}},
		{model.TextTopLeft, []string{"+----+", "|ab  |", "|    |", "|    |", "+----+"}},
		{model.TextBottomRight, []string{"+----+", "|    |", "|    |", "|  ab|", "+----+"}},
	}
	for _, tt := range tests {
		t.Run(tt.pos.String(), func(t *testing.T) {
			g := NewGrid(6, 5)
			g.Box(CellRect{0, 0, 5, 4}, "ab", tt.pos, false)
			assert.Equal(t, tt.want, g.Lines())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, Wrap("hello world", 7))
	assert.Equal(t, []string{"abc", "def", "g"}, Wrap("abcdefg", 3))
	assert.Equal(t, []string{"a b", "", "c"}, Wrap("a b\n\nc", 5))
	assert.Nil(t, Wrap("", 5))
}

func TestProjectionKeepsBorders(t *testing.T) {
	p := Projection{Origin: geom.Point{X: 0, Y: 160}}
	r := p.Rect(geom.Box{X: 0, Y: 150, W: 1, H: 1})
	assert.Equal(t, 2, r.Width())
	assert.Equal(t, 2, r.Height())
	x, y := r.Anchor(geom.Top)
	assert.Equal(t, r.Y0-1, y)
	assert.Equal(t, r.X0, x)
}

func TestPNG(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	blue := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range 4 {
		blue.Set(i%2, i/2, color.RGBA{B: 0xff, A: 0xff})
	}
	var enc bytes.Buffer
	require.NoError(t, png.Encode(&enc, blue))
	imgID := uuid.New()
	require.NoError(t, st.SaveImage(ctx, imgID, enc.Bytes()))

	cp := model.NewCheckpoint()
	red := model.NewNode(1, 0, 0, 100, 50)
	red.BgColor = "#ff0000"
	cp.PutNode(red)
	pic := model.NewNode(2, 200, 0, 40, 40)
	pic.Kind = model.KindImage
	pic.Image = &model.ImageRef{ID: imgID, Width: 2, Height: 2}
	cp.PutNode(pic)

	var out bytes.Buffer
	require.NoError(t, PNG(ctx, &out, cp, st, Options{}))
	img, err := png.Decode(&out)
	require.NoError(t, err)

	// 240x50 of nodes plus 32 units of padding on every side
	assert.Equal(t, image.Rect(0, 0, 304, 114), img.Bounds())
	assertRGB(t, img, 82, 57, 0xff, 0, 0)
	assertRGB(t, img, 252, 62, 0, 0, 0xff)
	assertRGB(t, img, 2, 2, 0xff, 0xff, 0xff)
}

func assertRGB(t *testing.T, img image.Image, x, y int, r, g, b uint8) {
	t.Helper()
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	assert.Equal(t, [3]uint8{r, g, b}, [3]uint8{c.R, c.G, c.B}, "pixel %d,%d", x, y)
}

func TestColors(t *testing.T) {
	assert.Equal(t, colorfulWhite(), ParseColor("not a colour"))
	assert.Equal(t, colorfulWhite(), TextColor(ParseColor("#000000")))
	l, _, _ := TextColor(ParseColor("#ffffff")).Lab()
	assert.Zero(t, l)
}

func colorfulWhite() colorful.Color { return colorful.Color{R: 1, G: 1, B: 1} }

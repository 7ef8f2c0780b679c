package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"velo/internal/clipboard"
	"velo/internal/model"
	"velo/internal/persist"
)

// ErrNoClipboard is returned by paste actions when the engine has no
// clipboard source.
var ErrNoClipboard = errors.New("no clipboard available")

// PasteImage turns the clipboard image into an image node sized to the
// picture and centred on the pointer (or on the canvas when the pointer is
// over the side panel).
func (e *Engine) PasteImage() error {
	if e.opts.Clipboard == nil {
		return ErrNoClipboard
	}
	raw, err := e.opts.Clipboard.Image()
	if errors.Is(err, clipboard.ErrNoImage) {
		e.setStatus("clipboard has no image", false)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = e.InsertImage(raw)
	return err
}

// InsertImage adds raw as a new image node and stages its PNG encoding for
// the next save.
func (e *Engine) InsertImage(raw clipboard.RawImage) (int, error) {
	if err := raw.Validate(); err != nil {
		return 0, err
	}
	img := fitImage(raw.RGBA(), e.opts.MaxImageSide)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("encode pasted image: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	ref := &model.ImageRef{ID: uuid.New(), Width: w, Height: h}
	e.proc.StageImage(ref.ID, buf.Bytes())

	tab := e.App.ActiveTab()
	ext := e.Machine.CanvasSize()
	center := e.Machine.ToCanvas(e.Machine.Pointer())
	if center.X < 0 || center.X > ext.X {
		center.X, center.Y = ext.X/2, ext.Y/2
	}
	n := model.NewNode(e.App.NextID(), center.X-float64(w)/2, center.Y-float64(h)/2, float64(w), float64(h))
	n.Kind = model.KindImage
	n.Image = ref
	n.Z = tab.Live.TopZ() + 1
	tab.Live.PutNode(n)
	tab.Touch()
	e.scene.UpdateNode(tab.Live, n.ID, ext)
	e.Mailbox.PostSave(persist.SaveRequest{})
	return n.ID, nil
}

// fitImage scales img down so neither side exceeds maxSide.
func fitImage(img *image.RGBA, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	scale := float64(maxSide) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// PasteText appends clipboard text to the node being edited.
func (e *Engine) PasteText() error {
	if e.opts.Clipboard == nil {
		return ErrNoClipboard
	}
	id := e.Machine.State.EditNode
	if id == 0 {
		return nil
	}
	text, err := e.opts.Clipboard.Text()
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	e.Machine.State.Edited = true
	return e.updateNode(id, func(n *model.Node) { n.Text += text })
}

// ImageBytes returns PNG bytes for an image, from the staging area or the
// store.
func (e *Engine) ImageBytes(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if b, ok := e.proc.Staged(id); ok {
		return b, nil
	}
	return e.store.LoadImage(ctx, id)
}

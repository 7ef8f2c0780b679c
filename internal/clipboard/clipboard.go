// Package clipboard reads text and images from the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/image/draw"
)

// ErrNoImage is returned when the clipboard holds nothing usable as an
// image.
var ErrNoImage = errors.New("no image on the clipboard")

// RawImage is tightly packed 8-bit RGBA.
type RawImage struct {
	Pix    []byte
	Width  int
	Height int
}

// MaxSide bounds either dimension of a RawImage.
const MaxSide = 1 << 14

// Validate reports whether the dimensions are usable and Pix holds every
// pixel.
func (r RawImage) Validate() error {
	if r.Width <= 0 || r.Height <= 0 || r.Width > MaxSide || r.Height > MaxSide {
		return fmt.Errorf("invalid image %dx%d", r.Width, r.Height)
	}
	if len(r.Pix) < 4*r.Width*r.Height {
		return fmt.Errorf("image %dx%d: have %d bytes of pixels", r.Width, r.Height, len(r.Pix))
	}
	return nil
}

// RGBA wraps the pixels without copying.
func (r RawImage) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pix,
		Stride: 4 * r.Width,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// FromImage converts any decoded image to RawImage.
func FromImage(img image.Image) RawImage {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return RawImage{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()}
}

// Source is what the engine pastes from.
type Source interface {
	Text() (string, error)
	Image() (RawImage, error)
}

// System uses the OS clipboard. Terminal clipboards only carry text, so an
// image is taken from clipboard text that is a path to an image file or a
// base64 data URL.
type System struct{}

func (System) Text() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return Clean(string(out)), nil
		}
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return Clean(text), nil
}

func (System) Image() (RawImage, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return RawImage{}, fmt.Errorf("read clipboard: %w", err)
	}
	return DecodeImage(strings.TrimSpace(text))
}

// DecodeImage interprets clipboard text as an image reference.
func DecodeImage(text string) (RawImage, error) {
	var data []byte
	switch {
	case strings.HasPrefix(text, "data:image/"):
		b, err := decodeDataURL(text)
		if err != nil {
			return RawImage{}, err
		}
		data = b
	case text != "" && !strings.ContainsAny(text, "\n\r"):
		path := strings.TrimPrefix(text, "file://")
		if strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, path[2:])
			}
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return RawImage{}, ErrNoImage
		}
		data = b
	default:
		return RawImage{}, ErrNoImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return RawImage{}, ErrNoImage
	}
	return FromImage(img), nil
}

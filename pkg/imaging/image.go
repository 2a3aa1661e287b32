// Package imaging holds the pixel operations applied to decoded frames:
// histogram analysis, contrast stretch, brightness offset, resampling and
// lighten blending. All operations work on *image.RGBA and touch the R, G
// and B channels only.
package imaging

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/cedricshih/pit/pkg/param"
)

// Min and Max bound a channel value.
const (
	Min = 0
	Max = 255
)

// Load decodes the image at path into a fresh RGBA buffer.
func Load(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return ToRGBA(img), nil
}

// Size reads only the header of the image at path.
func Size(path string) (param.Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return param.Dim{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return param.Dim{}, errors.Wrapf(err, "decode header %s", path)
	}
	return param.Dim{Width: cfg.Width, Height: cfg.Height}, nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin, copying only
// when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// SameAspect reports whether src scales to dst without distortion.
func SameAspect(src, dst param.Dim) bool {
	return src.Width*dst.Height == src.Height*dst.Width
}

func clamp(v int) uint8 {
	switch {
	case v < Min:
		return Min
	case v > Max:
		return Max
	default:
		return uint8(v)
	}
}

// eachRGB calls fn for every colour byte of img, skipping alpha.
func eachRGB(img *image.RGBA, fn func(c uint8) uint8) {
	w := img.Rect.Dx() * 4
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for i := 0; i < len(row); i += 4 {
			row[i] = fn(row[i])
			row[i+1] = fn(row[i+1])
			row[i+2] = fn(row[i+2])
		}
	}
}

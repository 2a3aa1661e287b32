package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize scales img to w x h with Catmull-Rom resampling. img is returned as
// is when it already has that size.
func Resize(img *image.RGBA, w, h int) *image.RGBA {
	if img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

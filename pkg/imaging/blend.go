package imaging

import (
	"image"

	"github.com/pkg/errors"
)

// ErrSizeMismatch is returned when blending pictures of different sizes.
var ErrSizeMismatch = errors.New("image size mismatch")

// Lighten keeps the per-channel maximum of dst and src in dst.
func Lighten(dst, src *image.RGBA) error {
	if dst.Rect.Size() != src.Rect.Size() {
		return errors.Wrapf(ErrSizeMismatch, "%v vs %v", dst.Rect.Size(), src.Rect.Size())
	}
	w := dst.Rect.Dx() * 4
	for y := 0; y < dst.Rect.Dy(); y++ {
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		s := src.Pix[y*src.Stride : y*src.Stride+w]
		for i := range d {
			if s[i] > d[i] {
				d[i] = s[i]
			}
		}
	}
	return nil
}

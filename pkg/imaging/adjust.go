package imaging

import (
	"image"

	"github.com/pkg/errors"

	"github.com/cedricshih/pit/pkg/param"
)

// Levels maps Black to 0 and White to 255, scaling linearly in between.
type Levels struct {
	Black uint8
	White uint8
}

// FullRange leaves pixels untouched.
var FullRange = Levels{Black: Min, White: Max}

// IsIdentity reports whether applying l is a no-op.
func (l Levels) IsIdentity() bool {
	return l.Black == Min && l.White == Max
}

// Map stretches a single channel value.
func (l Levels) Map(c uint8) uint8 {
	if l.White <= l.Black {
		if c < l.Black {
			return Min
		}
		return Max
	}
	return clamp((int(c) - int(l.Black)) * Max / (int(l.White) - int(l.Black)))
}

// Stretch applies l to img in place.
func Stretch(img *image.RGBA, l Levels) {
	if l.IsIdentity() {
		return
	}
	var lut [256]uint8
	for i := range lut {
		lut[i] = l.Map(uint8(i))
	}
	eachRGB(img, func(c uint8) uint8 { return lut[c] })
}

// Offset adds delta to every channel of img in place, clamping to 0..255.
// Negative values darken; -255 yields black.
func Offset(img *image.RGBA, delta int) {
	if delta == 0 {
		return
	}
	eachRGB(img, func(c uint8) uint8 { return clamp(int(c) + delta) })
}

// Resolve turns a black and white point range into concrete levels. Percent
// bounds are looked up in hist, which may be nil when neither bound is a
// percentage.
func Resolve(r param.Range, hist *Histogram) (Levels, error) {
	black, err := resolve(r.Lo, hist)
	if err != nil {
		return Levels{}, errors.Wrap(err, "black point")
	}
	white, err := resolve(r.Hi, hist)
	if err != nil {
		return Levels{}, errors.Wrap(err, "white point")
	}
	return Levels{Black: black, White: white}, nil
}

func resolve(b param.Bound, hist *Histogram) (uint8, error) {
	if !b.Percent {
		if b.Value < Min || b.Value > Max {
			return 0, errors.Errorf("%s out of range %d..%d", b, Min, Max)
		}
		return uint8(b.Value), nil
	}
	if b.Value < 0 || b.Value > 100 {
		return 0, errors.Errorf("%s out of range 0%%..100%%", b)
	}
	if hist == nil {
		return 0, errors.Errorf("%s needs a reference histogram", b)
	}
	return hist.Percentile(b.Value / 100), nil
}

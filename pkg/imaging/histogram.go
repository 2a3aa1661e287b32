package imaging

import (
	"image"
)

// Histogram counts channel values over the R, G and B bytes of a picture.
type Histogram struct {
	values [256]uint64
	total  uint64
}

// NewHistogram builds the histogram of img.
func NewHistogram(img *image.RGBA) *Histogram {
	h := &Histogram{}
	h.Add(img)
	return h
}

// Add accumulates img into h.
func (h *Histogram) Add(img *image.RGBA) {
	w := img.Rect.Dx() * 4
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for i := 0; i < len(row); i += 4 {
			h.values[row[i]]++
			h.values[row[i+1]]++
			h.values[row[i+2]]++
		}
		h.total += uint64(w / 4 * 3)
	}
}

// Count returns the number of samples equal to v.
func (h *Histogram) Count(v uint8) uint64 {
	return h.values[v]
}

// Total returns the number of samples.
func (h *Histogram) Total() uint64 {
	return h.total
}

// Contribution returns the fraction of samples less than or equal to v.
func (h *Histogram) Contribution(v uint8) float64 {
	if h.total == 0 {
		return 0
	}
	var n uint64
	for i := 0; i <= int(v); i++ {
		n += h.values[i]
	}
	return float64(n) / float64(h.total)
}

// Percentile returns the smallest value whose cumulative contribution reaches
// ratio (0..1).
func (h *Histogram) Percentile(ratio float64) uint8 {
	if h.total == 0 {
		return Min
	}
	var n uint64
	for i := 0; i < len(h.values); i++ {
		n += h.values[i]
		if float64(n)/float64(h.total) >= ratio {
			return uint8(i)
		}
	}
	return Max
}

package pipeline

import (
	"github.com/pkg/errors"

	"github.com/cedricshih/pit/pkg/imaging"
	"github.com/cedricshih/pit/pkg/param"
)

// ErrFadeTooLong is returned when fade in and fade out do not fit the video.
var ErrFadeTooLong = errors.New("duration too short for fade in/out")

// Fades returns the brightness offset of each of total frames for a fade in
// of in seconds and a fade out of out seconds. Fade in starts at -255 and
// ramps up; fade out ramps down from 0 over the last frames.
func Fades(total int, rate param.Rational, in, out float64) ([]int, error) {
	fades := make([]int, total)

	numIn := rate.Frames(in)
	numOut := rate.Frames(out)
	if (in != 0 || out != 0) && numIn+numOut >= total {
		return nil, errors.Wrapf(ErrFadeTooLong, "%d+%d frames of %d", numIn, numOut, total)
	}

	if numIn > 0 {
		step := float64(imaging.Max) / float64(numIn)
		for i := 0; i < numIn; i++ {
			fades[i] = int(float64(i-numIn) * step)
		}
	}
	if numOut > 0 {
		step := float64(imaging.Max) / float64(numOut)
		for i := 0; i < numOut; i++ {
			fades[total-numOut+i] = int(float64(-i) * step)
		}
	}
	return fades, nil
}

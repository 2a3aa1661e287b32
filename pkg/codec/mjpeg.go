package codec

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/pkg/errors"

	"github.com/cedricshih/pit/pkg/riff"
)

// DefaultQuality is used when Config.Quality is out of range.
const DefaultQuality = 95

// MJPEG stores every frame as a baseline JPEG. It never holds frames back.
type MJPEG struct {
	quality int
	buf     bytes.Buffer
}

// NewMJPEG returns a Motion JPEG encoder.
func NewMJPEG(cfg Config) *MJPEG {
	q := cfg.Quality
	if q < 1 || q > 100 {
		q = DefaultQuality
	}
	return &MJPEG{quality: q}
}

func (e *MJPEG) FourCC() riff.FourCC {
	return riff.NewFourCC("MJPG")
}

func (e *MJPEG) Encode(img image.Image) ([]byte, error) {
	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, img, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, errors.Wrap(err, "encode JPEG")
	}
	return append([]byte(nil), e.buf.Bytes()...), nil
}

func (e *MJPEG) Pending() int {
	return 0
}

func (e *MJPEG) Flush() ([]byte, error) {
	return nil, errors.New("mjpeg: nothing to flush")
}

func (e *MJPEG) Close() error {
	return nil
}

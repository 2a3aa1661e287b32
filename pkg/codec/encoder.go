// Package codec turns decoded frames into the compressed payloads stored in
// AVI '00dc' chunks.
package codec

import (
	"image"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/riff"
)

// ErrPending is returned by Encode when the frame was accepted but no
// compressed frame is ready yet.
var ErrPending = errors.New("codec: output pending")

// Encoder compresses a sequence of equally sized frames.
//
// Encode may hold frames back (B-frame reordering, lookahead). Callers
// drain the remaining output after the last frame with
//
//	for enc.Pending() > 0 {
//		data, err := enc.Flush()
//		...
//	}
type Encoder interface {
	// FourCC is the AVI stream handler and compression tag.
	FourCC() riff.FourCC

	// Encode submits img and returns one compressed frame, or ErrPending.
	Encode(img image.Image) ([]byte, error)

	// Pending returns the number of submitted frames not yet returned.
	Pending() int

	// Flush ends the input and blocks until the next held back frame is
	// available.
	Flush() ([]byte, error)

	// Close releases the encoder. Held back frames are dropped.
	Close() error
}

// Config holds the parameters shared by all encoders.
type Config struct {
	Width   int
	Height  int
	Rate    param.Rational
	Quality int    // 1-100, JPEG only
	FFmpeg  string // ffmpeg binary, H.264 only
	Logger  logrus.FieldLogger
}

// Names of the supported codecs.
const (
	NameMJPEG = "mjpeg"
	NameH264  = "h264"
)

// New returns the encoder called name.
func New(name string, cfg Config) (Encoder, error) {
	switch strings.ToLower(name) {
	case NameMJPEG, "mjpg", "jpeg":
		return NewMJPEG(cfg), nil
	case NameH264, "avc", "x264":
		return NewH264(cfg)
	default:
		return nil, errors.Errorf("unsupported codec %q", name)
	}
}

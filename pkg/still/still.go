// Package still writes composited pictures to disk.
//
// The format is inferred from the file extension:
//   - ".jpg", ".jpeg" → baseline JPEG at the requested quality
//   - ".png" → PNG
package still

import (
	"bufio"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Format is an output picture format.
type Format int

const (
	JPEG Format = iota
	PNG
)

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".png":
		return PNG, nil
	default:
		return 0, errors.Errorf("unsupported format %q: use .jpg or .png", ext)
	}
}

// Save writes img to path. quality applies to JPEG only.
func Save(path string, img image.Image, quality int) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, format, img, quality); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, format Format, img image.Image, quality int) error {
	switch format {
	case JPEG:
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return errors.Wrap(err, "encode JPEG")
		}
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return errors.Wrap(err, "encode PNG")
		}
	default:
		return errors.Errorf("unknown format %d", format)
	}
	return nil
}

// fonts.go - Font loading with custom TTF support and embedded fallback font.
// Defaults to Go Regular when no custom font is given or when it cannot be
// loaded.
package overlay

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontManager hands out faces of one parsed font.
type FontManager struct {
	parsed *opentype.Font
	faces  map[float64]font.Face
}

// NewFontManager parses the font at customPath, or the embedded Go Regular
// font when customPath is empty or unreadable.
func NewFontManager(customPath string, log logrus.FieldLogger) (*FontManager, error) {
	var data []byte

	if customPath != "" {
		var err error
		if data, err = os.ReadFile(customPath); err != nil {
			if log != nil {
				log.WithError(err).Warnf("could not load font %q, using default", customPath)
			}
			data = nil
		}
	}
	if data == nil {
		data = goregular.TTF
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}

	return &FontManager{parsed: parsed, faces: make(map[float64]font.Face)}, nil
}

// Face returns a face of the given pixel size. Faces are cached.
func (fm *FontManager) Face(size float64) (font.Face, error) {
	if face, ok := fm.faces[size]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create font face")
	}

	fm.faces[size] = face
	return face, nil
}

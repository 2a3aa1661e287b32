// color.go - Hex colour parsing for label text.
package overlay

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// White is the default label colour.
var White = color.RGBA{255, 255, 255, 255}

// ParseColor parses "#rrggbb" or "#rrggbbaa". The leading '#' is optional.
// An empty string yields White.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return White, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, errors.Errorf("invalid color %q: expected 6 or 8 hex digits", s)
	}

	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.RGBA{}, errors.Wrapf(err, "invalid channel %d in %q", i, s)
		}
		ch[i] = uint8(v)
	}

	// color.RGBA is alpha-premultiplied
	a := uint32(ch[3])
	return color.RGBA{
		R: uint8(uint32(ch[0]) * a / 255),
		G: uint8(uint32(ch[1]) * a / 255),
		B: uint8(uint32(ch[2]) * a / 255),
		A: ch[3],
	}, nil
}

// Package overlay burns a text label into video frames.
//
// The label text may reference the frame being drawn:
//
//	{frame}  1-based frame number
//	{total}  number of frames
//	{file}   base name of the source picture
package overlay

import (
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Label draws text in the bottom left corner, wrapped onto as many lines as
// the frame width requires.
type Label struct {
	Text  string
	Color color.RGBA

	fonts *FontManager
}

// NewLabel returns a label drawn with faces from fonts.
func NewLabel(text string, c color.RGBA, fonts *FontManager) *Label {
	return &Label{Text: text, Color: c, fonts: fonts}
}

// Frame identifies the picture a label is drawn on.
type Frame struct {
	Index int // 0-based
	Total int
	Path  string
}

// Expand substitutes the placeholders of l.Text for f.
func (l *Label) Expand(f Frame) string {
	return strings.NewReplacer(
		"{frame}", strconv.Itoa(f.Index+1),
		"{total}", strconv.Itoa(f.Total),
		"{file}", filepath.Base(f.Path),
	).Replace(l.Text)
}

// Draw renders the label for f onto img. The font size follows the frame
// height so labels look the same at every output resolution.
func (l *Label) Draw(img *image.RGBA, f Frame) error {
	text := l.Expand(f)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	b := img.Bounds()
	size := float64(b.Dy()) / 24
	if size < 8 {
		size = 8
	}
	face, err := l.fonts.Face(size)
	if err != nil {
		return err
	}

	margin := int(size)
	lineHeight := int(size * 1.3)
	lines := wrapText(text, b.Dx()-2*margin, face)

	y := b.Max.Y - margin - (len(lines)-1)*lineHeight
	for _, line := range lines {
		drawString(img, line, b.Min.X+margin, y, l.Color, face)
		y += lineHeight
	}
	return nil
}

// wrapText breaks text into lines that each fit within maxWidth pixels.
func wrapText(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
		} else {
			current = candidate
		}
	}
	return append(lines, current)
}

func drawString(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

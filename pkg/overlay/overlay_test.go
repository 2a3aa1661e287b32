package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 128, 0, 255}, c)

	c, err = ParseColor("ffffff80")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{128, 128, 128, 128}, c)

	c, err = ParseColor("")
	require.NoError(t, err)
	assert.Equal(t, White, c)

	for _, bad := range []string{"#fff", "#gg0000", "red"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestExpand(t *testing.T) {
	l := NewLabel("{file} {frame}/{total}", White, nil)
	assert.Equal(t, "IMG_0001.JPG 3/120", l.Expand(Frame{Index: 2, Total: 120, Path: "/tmp/IMG_0001.JPG"}))
}

func TestDrawMarksBottomLeft(t *testing.T) {
	fonts, err := NewFontManager("", nil)
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	l := NewLabel("MMMM {frame}", White, fonts)
	require.NoError(t, l.Draw(img, Frame{Index: 0, Total: 1}))

	var top, bottom int
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			if img.RGBAAt(x, y).R != 0 {
				if y < 120 {
					top++
				} else {
					bottom++
				}
			}
		}
	}
	assert.Zero(t, top)
	assert.NotZero(t, bottom)
}

func TestDrawWrapsOntoSeveralLines(t *testing.T) {
	fonts, err := NewFontManager("", nil)
	require.NoError(t, err)

	// size 10, margin 10, line height 13
	img := image.NewRGBA(image.Rect(0, 0, 80, 240))
	l := NewLabel("MMMM MMMM MMMM", White, fonts)
	require.NoError(t, l.Draw(img, Frame{}))

	first, last := -1, -1
	for y := 0; y < 240; y++ {
		for x := 0; x < 80; x++ {
			if img.RGBAAt(x, y).R != 0 {
				if first < 0 {
					first = y
				}
				last = y
				break
			}
		}
	}
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, last-first, 13, "ink spans more than one line")
	assert.Less(t, last, 240-5)
}

func TestDrawBlankIsNoop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	l := NewLabel("   ", White, nil)
	require.NoError(t, l.Draw(img, Frame{}))
	assert.Equal(t, make([]uint8, len(img.Pix)), img.Pix)
}

func TestFallbackFont(t *testing.T) {
	fonts, err := NewFontManager("/nonexistent/font.ttf", nil)
	require.NoError(t, err)
	face, err := fonts.Face(12)
	require.NoError(t, err)
	again, err := fonts.Face(12)
	require.NoError(t, err)
	assert.Same(t, face, again)
}

func TestWrapText(t *testing.T) {
	fonts, err := NewFontManager("", nil)
	require.NoError(t, err)
	face, err := fonts.Face(10)
	require.NoError(t, err)

	assert.Nil(t, wrapText("  ", 100, face))
	assert.Equal(t, []string{"a b"}, wrapText("a   b", 0, face))
	lines := wrapText("one two three four five six", 40, face)
	assert.Greater(t, len(lines), 1)
}

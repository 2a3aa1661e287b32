package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDim(t *testing.T) {
	d, err := ParseDim("1920x1080")
	require.NoError(t, err)
	assert.Equal(t, Dim{Width: 1920, Height: 1080}, d)
	assert.Equal(t, "1920x1080", d.String())

	for _, bad := range []string{"", "1920", "x1080", "1920x", "0x10", "10x-1", "axb"} {
		_, err := ParseDim(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

func TestParseRational(t *testing.T) {
	r, err := ParseRational("24")
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 24, Den: 1}, r)
	assert.Equal(t, 240, r.Frames(10))

	r, err = ParseRational("30000/1001")
	require.NoError(t, err)
	assert.InDelta(t, 29.97, r.Float(), 0.01)
	assert.Equal(t, "30000/1001", r.String())

	for _, bad := range []string{"", "0", "-5", "24/0", "24/x", "abc"} {
		_, err := ParseRational(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("0.5%:99.5%")
	require.NoError(t, err)
	assert.Equal(t, Bound{Value: 0.5, Percent: true}, r.Lo)
	assert.Equal(t, Bound{Value: 99.5, Percent: true}, r.Hi)
	assert.Equal(t, "0.5%:99.5%", r.String())

	r, err = ParseRange("20:5%")
	require.NoError(t, err, "mixed units are not compared")
	assert.False(t, r.Lo.Percent)
	assert.True(t, r.Hi.Percent)

	for _, bad := range []string{"10", "10:", ":10", "20:10", "a:b", "5%:1%", "nan:255", "0:Inf", "-inf%:10%", "NaN%:50%"} {
		_, err := ParseRange(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

func TestParseIntRange(t *testing.T) {
	b, e, err := ParseIntRange("1:120")
	require.NoError(t, err)
	assert.Equal(t, 1, b)
	assert.Equal(t, 120, e)

	for _, bad := range []string{"1", "5:1", "1.5:3", "a:1"} {
		_, _, err := ParseIntRange(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

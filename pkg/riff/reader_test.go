package riff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafBytes(tag string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	copy(b, tag)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(payload)))
	return append(b, payload...)
}

func TestParseHonoursAlignment(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(leafBytes("odd ", []byte{1, 2, 3}))
	buf.WriteByte(0xFF)
	buf.Write(leafBytes("next", []byte{4, 5, 6, 7}))

	nodes, err := Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()), 4)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "next", nodes[1].FourCC.String())
	assert.Equal(t, int64(12), nodes[1].Offset)
}

func TestParseDetectsOverrun(t *testing.T) {
	raw := leafBytes("data", []byte{1, 2, 3, 4})
	binary.LittleEndian.PutUint32(raw[4:], 100)

	_, err := Parse(bytes.NewReader(raw), int64(len(raw)), 2)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseDetectsShortList(t *testing.T) {
	raw := leafBytes("LIST", []byte{'a', 'b'})

	_, err := Parse(bytes.NewReader(raw), int64(len(raw)), 2)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFindMatchesListSubtype(t *testing.T) {
	inner := leafBytes("strh", make([]byte, 4))
	list := leafBytes("LIST", append([]byte("strl"), inner...))

	nodes, err := Parse(bytes.NewReader(list), int64(len(list)), 2)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Same(t, nodes[0], nodes[0].Find("strl"))
	assert.Equal(t, int64(12), nodes[0].Find("strh").Offset)
	assert.Nil(t, nodes[0].Find("idx1"))
}

func aviList(children ...[]byte) []byte {
	payload := []byte("AVI ")
	for _, c := range children {
		payload = append(payload, c...)
	}
	return leafBytes("RIFF", payload)
}

func TestParseWordPaddedChunks(t *testing.T) {
	odd := append(leafBytes("aaaa", bytes.Repeat([]byte{1}, 13)), 0)
	raw := aviList(odd, leafBytes("bbbb", []byte{2, 2}))

	nodes, err := Parse(bytes.NewReader(raw), int64(len(raw)), 4)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Children, 2)
	assert.Equal(t, "bbbb", nodes[0].Children[1].FourCC.String())
	assert.Equal(t, int64(34), nodes[0].Children[1].Offset)
}

func TestParseFillerPaddedChunks(t *testing.T) {
	odd := append(leafBytes("aaaa", bytes.Repeat([]byte{1}, 13)), 0xFF, 0xFF, 0xFF)
	even := append(leafBytes("cccc", bytes.Repeat([]byte{3}, 10)), 0xFF, 0xFF)
	raw := aviList(odd, even, leafBytes("bbbb", []byte{2, 2, 2, 2}))

	nodes, err := Parse(bytes.NewReader(raw), int64(len(raw)), 4)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	children := nodes[0].Children
	require.Len(t, children, 3)
	assert.Equal(t, int64(36), children[1].Offset)
	assert.Equal(t, int64(56), children[2].Offset)
	assert.Equal(t, "bbbb", children[2].FourCC.String())
}

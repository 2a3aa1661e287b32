package avi

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/riff"
)

func newTestMuxer(t *testing.T) (*Muxer, string) {
	t.Helper()
	m, err := NewMuxer(Config{
		Codec:  MJPG,
		Width:  64,
		Height: 48,
		Rate:   param.Rational{Num: 24, Den: 1},
	})
	require.NoError(t, err)
	return m, filepath.Join(t.TempDir(), "out.avi")
}

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func parseFile(t *testing.T, raw []byte) *riff.Node {
	t.Helper()
	nodes, err := riff.Parse(bytes.NewReader(raw), int64(len(raw)), 4)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	return nodes[0]
}

func TestEmptyFileLayout(t *testing.T) {
	m, path := newTestMuxer(t)
	require.NoError(t, m.Open(path))
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 256)

	assert.Equal(t, "RIFF", string(raw[0:4]))
	assert.Equal(t, uint32(248), u32(raw, 4))
	assert.Equal(t, "AVI ", string(raw[8:12]))

	assert.Equal(t, "LIST", string(raw[12:16]))
	assert.Equal(t, "hdrl", string(raw[20:24]))
	assert.Equal(t, "avih", string(raw[24:28]))
	assert.Equal(t, uint32(56), u32(raw, 28))
	assert.Equal(t, "strl", string(raw[96:100]))
	assert.Equal(t, "strh", string(raw[100:104]))
	assert.Equal(t, "strf", string(raw[164:168]))
	assert.Equal(t, uint32(40), u32(raw, 168))
	assert.Equal(t, "odml", string(raw[220:224]))
	assert.Equal(t, "dmlh", string(raw[224:228]))

	assert.Equal(t, "LIST", string(raw[236:240]))
	assert.Equal(t, uint32(4), u32(raw, 240))
	assert.Equal(t, "movi", string(raw[244:248]))
	assert.Equal(t, "idx1", string(raw[248:252]))
	assert.Equal(t, uint32(0), u32(raw, 252))

	root := parseFile(t, raw)
	avih, err := root.Find("avih").Payload(bytes.NewReader(raw))
	require.NoError(t, err)
	h, err := ParseMainHeader(avih)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), h.TotalFrames)
	assert.Equal(t, uint32(41666), h.MicroSecPerFrame)
	assert.Equal(t, uint32(FlagHasIndex), h.Flags)
	assert.Equal(t, uint32(64), h.Width)
	assert.Equal(t, uint32(48), h.Height)
}

func TestFramesArePaddedAndIndexed(t *testing.T) {
	m, path := newTestMuxer(t)
	require.NoError(t, m.Open(path))

	sizes := []int{10, 11, 13}
	for i, n := range sizes {
		require.NoError(t, m.WriteFrame(bytes.Repeat([]byte{byte('a' + i)}, n)))
	}
	assert.Equal(t, 3, m.FramesWritten())
	assert.Equal(t, int64(34), m.BytesWritten())
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 248+20+20+24+8+48)

	// movi: subtype + three padded frames.
	assert.Equal(t, uint32(4+20+20+24), u32(raw, 240))
	assert.Equal(t, uint32(len(raw)-8), u32(raw, 4))

	// padding is 0xFF and excluded from the declared size
	assert.Equal(t, "00dc", string(raw[248:252]))
	assert.Equal(t, uint32(10), u32(raw, 252))
	assert.Equal(t, []byte{0xFF, 0xFF}, raw[266:268])
	assert.Equal(t, uint32(11), u32(raw, 272))
	assert.Equal(t, byte(0xFF), raw[287])
	assert.Equal(t, uint32(13), u32(raw, 292))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, raw[309:312])

	root := parseFile(t, raw)
	idx1 := root.Find("idx1")
	require.NotNil(t, idx1)
	payload, err := idx1.Payload(bytes.NewReader(raw))
	require.NoError(t, err)
	entries, err := ParseIndex(payload)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	offsets := []uint32{248, 268, 288}
	for i, e := range entries {
		assert.Equal(t, FrameTag, e.ChunkID)
		assert.Equal(t, uint32(IndexKeyframe|IndexTwoCC), e.Flags)
		assert.Equal(t, offsets[i], e.Offset)
		assert.Equal(t, uint32(sizes[i]), e.Size)

		// each record leads back to its frame
		assert.Equal(t, "00dc", string(raw[e.Offset:e.Offset+4]))
		assert.Equal(t, e.Size, u32(raw, int(e.Offset)+4))
		assert.Equal(t, byte('a'+i), raw[e.Offset+8])
	}

	movi := root.Find("movi")
	require.NotNil(t, movi)
	assert.Len(t, movi.Children, 3)

	strh, err := root.Find("strh").Payload(bytes.NewReader(raw))
	require.NoError(t, err)
	sh, err := ParseStreamHeader(strh)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), sh.Length)
	assert.Equal(t, uint32(24), sh.Rate)
	assert.Equal(t, uint32(1), sh.Scale)
	assert.Equal(t, int32(-1), sh.Quality)
	assert.Equal(t, MJPG, sh.Handler)

	avih, err := root.Find("avih").Payload(bytes.NewReader(raw))
	require.NoError(t, err)
	h, err := ParseMainHeader(avih)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), h.TotalFrames)
	// ceil(34/3) bytes per frame at 24 fps
	assert.Equal(t, uint32(12*24), h.MaxBytesPerSec)
}

func TestCloseWithoutOpen(t *testing.T) {
	m, _ := newTestMuxer(t)
	assert.ErrorIs(t, m.Close(), ErrNotOpen)
	assert.ErrorIs(t, m.WriteFrame([]byte{1}), ErrNotOpen)
	assert.NoError(t, m.Abort())
}

func TestOpenTwice(t *testing.T) {
	m, path := newTestMuxer(t)
	require.NoError(t, m.Open(path))
	defer m.Abort()

	assert.ErrorIs(t, m.Open(path+".2"), ErrAlreadyOpen)
	assert.Equal(t, path, m.Path())
}

func TestReopenAfterClose(t *testing.T) {
	m, path := newTestMuxer(t)
	require.NoError(t, m.Open(path))
	require.NoError(t, m.WriteFrame([]byte{1, 2, 3, 4}))
	require.NoError(t, m.Close())

	second := path + ".2"
	require.NoError(t, m.Open(second))
	assert.Equal(t, 0, m.FramesWritten())
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Len(t, raw, 256)
}

func TestAbortLeavesPartialFile(t *testing.T) {
	m, path := newTestMuxer(t)
	require.NoError(t, m.Open(path))
	require.NoError(t, m.WriteFrame([]byte{1, 2, 3, 4}))
	require.NoError(t, m.Abort())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, 248+12)
	// sizes were never patched
	assert.Equal(t, uint32(4), u32(raw, 240))

	assert.ErrorIs(t, m.Close(), ErrNotOpen)
}

func TestOpenFailure(t *testing.T) {
	m, _ := newTestMuxer(t)
	err := m.Open(filepath.Join(t.TempDir(), "missing", "out.avi"))
	require.Error(t, err)
	assert.ErrorIs(t, m.Close(), ErrNotOpen)
}

func TestNewMuxerValidation(t *testing.T) {
	_, err := NewMuxer(Config{Codec: MJPG, Width: 0, Height: 10, Rate: param.Rational{Num: 1, Den: 1}})
	assert.Error(t, err)
	_, err = NewMuxer(Config{Codec: MJPG, Width: 10, Height: 10, Rate: param.Rational{Num: 0, Den: 1}})
	assert.Error(t, err)
}

func TestHeaderSizes(t *testing.T) {
	for _, tc := range []struct {
		v    any
		size int
	}{
		{MainHeader{}, 56},
		{StreamHeader{}, 56},
		{BitmapInfoHeader{}, 40},
		{ODMLHeader{}, 4},
		{IndexEntry{}, IndexEntrySize},
	} {
		assert.Equal(t, tc.size, binary.Size(tc.v), "%T", tc.v)
	}
}

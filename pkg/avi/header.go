// header.go - AVI 1.0 header structures.
// All structures are serialized little-endian with encoding/binary and match
// the on-disk sizes exactly: avih 56, strh 56, strf 40, dmlh 4, idx1 entry 16.
package avi

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/cedricshih/pit/pkg/riff"
)

// Chunk tags.
var (
	fccAVI  = riff.NewFourCC("AVI ")
	fccHdrl = riff.NewFourCC("hdrl")
	fccAvih = riff.NewFourCC("avih")
	fccStrl = riff.NewFourCC("strl")
	fccStrh = riff.NewFourCC("strh")
	fccStrf = riff.NewFourCC("strf")
	fccOdml = riff.NewFourCC("odml")
	fccDmlh = riff.NewFourCC("dmlh")
	fccMovi = riff.NewFourCC("movi")
	fccIdx1 = riff.NewFourCC("idx1")
	fccVids = riff.NewFourCC("vids")

	// FrameTag marks compressed video frames of stream 0.
	FrameTag = riff.NewFourCC("00dc")
)

// Codec handlers.
var (
	MJPG = riff.NewFourCC("MJPG")
	H264 = riff.NewFourCC("H264")
	AVC1 = riff.NewFourCC("avc1")
)

// Main header flags.
const (
	FlagHasIndex       = 0x00000010
	FlagMustUseIndex   = 0x00000020
	FlagIsInterleaved  = 0x00000100
	FlagWasCaptureFile = 0x00010000
	FlagCopyrighted    = 0x00020000
)

// Index entry flags.
const (
	IndexList     = 0x00000001
	IndexTwoCC    = 0x00000002
	IndexKeyframe = 0x00000010
	IndexNoTime   = 0x00000100
)

// MainHeader is the 'avih' chunk.
type MainHeader struct {
	MicroSecPerFrame    uint32
	MaxBytesPerSec      uint32
	PaddingGranularity  uint32
	Flags               uint32
	TotalFrames         uint32
	InitialFrames       uint32
	Streams             uint32
	SuggestedBufferSize uint32
	Width               uint32
	Height              uint32
	Reserved            [4]uint32
}

// Rect is the destination rectangle of a stream.
type Rect struct {
	Left   uint16
	Top    uint16
	Right  uint16
	Bottom uint16
}

// StreamHeader is the 'strh' chunk.
type StreamHeader struct {
	Type                riff.FourCC // 'vids'
	Handler             riff.FourCC
	Flags               uint32
	Priority            uint16
	Language            uint16
	InitialFrames       uint32
	Scale               uint32
	Rate                uint32 // Rate/Scale = frames per second
	Start               uint32
	Length              uint32
	SuggestedBufferSize uint32
	Quality             int32
	SampleSize          uint32
	Frame               Rect
}

// BitmapInfoHeader is the 'strf' chunk of a video stream.
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   riff.FourCC
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// ODMLHeader is the 'dmlh' chunk of the OpenDML extension.
type ODMLHeader struct {
	TotalFrames uint32
}

// IndexEntry is one 'idx1' record.
type IndexEntry struct {
	ChunkID riff.FourCC
	Flags   uint32
	Offset  uint32 // absolute file offset of the chunk header
	Size    uint32
}

// IndexEntrySize is the on-disk size of an IndexEntry.
const IndexEntrySize = 16

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, errors.Wrapf(err, "encode %T", v)
	}
	return buf.Bytes(), nil
}

func unmarshal(p []byte, v any) error {
	if err := binary.Read(bytes.NewReader(p), binary.LittleEndian, v); err != nil {
		return errors.Wrapf(err, "decode %T", v)
	}
	return nil
}

// ParseMainHeader decodes an 'avih' payload.
func ParseMainHeader(p []byte) (MainHeader, error) {
	var h MainHeader
	err := unmarshal(p, &h)
	return h, err
}

// ParseStreamHeader decodes a 'strh' payload.
func ParseStreamHeader(p []byte) (StreamHeader, error) {
	var h StreamHeader
	err := unmarshal(p, &h)
	return h, err
}

// ParseIndex decodes an 'idx1' payload.
func ParseIndex(p []byte) ([]IndexEntry, error) {
	if len(p)%IndexEntrySize != 0 {
		return nil, errors.Errorf("index size %d is not a multiple of %d", len(p), IndexEntrySize)
	}
	entries := make([]IndexEntry, len(p)/IndexEntrySize)
	if err := unmarshal(p, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

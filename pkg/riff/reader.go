package riff

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Node is a chunk found by Parse.
type Node struct {
	FourCC   FourCC
	Subtype  FourCC // zero for leaves
	Offset   int64  // file offset of the header
	Size     uint32 // size field as stored
	Children []*Node
}

// IsList reports whether n is a RIFF or LIST chunk.
func (n *Node) IsList() bool {
	return n.FourCC.IsList()
}

// DataOffset returns the file offset of the first payload byte.
func (n *Node) DataOffset() int64 {
	if n.IsList() {
		return n.Offset + ListHeaderSize
	}
	return n.Offset + LeafHeaderSize
}

// Find returns the first descendant (depth first, n included) whose fourcc
// or list subtype equals tag.
func (n *Node) Find(tag string) *Node {
	t := NewFourCC(tag)
	if n.FourCC == t || (n.IsList() && n.Subtype == t) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// Payload reads the payload of a leaf node.
func (n *Node) Payload(r io.ReaderAt) ([]byte, error) {
	if n.IsList() {
		return nil, errors.Wrapf(ErrInvalidState, "%s is a list chunk", n.FourCC)
	}
	buf := make([]byte, n.Size)
	if _, err := r.ReadAt(buf, n.DataOffset()); err != nil {
		return nil, ioError("read", n.DataOffset(), err)
	}
	return buf, nil
}

// filler is the byte the AVI muxer pads frames with.
const filler = 0xFF

// Parse walks the chunks stored in the first size bytes of r.
//
// With align 1 chunks are packed back to back. Otherwise every chunk starts
// on an even offset as in plain RIFF, and 0xFF filler running up to the next
// align-byte boundary is skipped, so files padded to 2 or to 4 bytes both
// parse with align 4.
func Parse(r io.ReaderAt, size int64, align int64) ([]*Node, error) {
	if align < 1 {
		align = 1
	}
	return parseRange(r, 0, size, align)
}

// skipPadding returns where the chunk after one ending at dataEnd starts.
func skipPadding(r io.ReaderAt, dataEnd, end, align int64) (int64, error) {
	if align == 1 {
		return dataEnd, nil
	}

	off := dataEnd + dataEnd&1
	boundary := (off + align - 1) / align * align
	if boundary == off || boundary > end {
		return off, nil
	}

	gap := make([]byte, boundary-off)
	if _, err := r.ReadAt(gap, off); err != nil {
		return 0, ioError("read", off, err)
	}
	for _, b := range gap {
		if b != filler {
			return off, nil
		}
	}
	return boundary, nil
}

func parseRange(r io.ReaderAt, start, end, align int64) ([]*Node, error) {
	var nodes []*Node
	var hdr [ListHeaderSize]byte

	for off := start; off < end; {
		if off+LeafHeaderSize > end {
			return nil, errors.Wrapf(ErrMalformed, "truncated header at %d", off)
		}
		if _, err := r.ReadAt(hdr[:LeafHeaderSize], off); err != nil {
			return nil, ioError("read", off, err)
		}

		n := &Node{Offset: off}
		copy(n.FourCC[:], hdr[0:4])
		n.Size = binary.LittleEndian.Uint32(hdr[4:8])

		dataEnd := off + LeafHeaderSize + int64(n.Size)
		if dataEnd > end {
			return nil, errors.Wrapf(ErrMalformed, "%s at %d overruns its parent (%d > %d)",
				n.FourCC, off, dataEnd, end)
		}

		if n.IsList() {
			if n.Size < subtypeSize {
				return nil, errors.Wrapf(ErrMalformed, "%s at %d is too short", n.FourCC, off)
			}
			if _, err := r.ReadAt(hdr[8:12], off+LeafHeaderSize); err != nil {
				return nil, ioError("read", off+LeafHeaderSize, err)
			}
			copy(n.Subtype[:], hdr[8:12])

			children, err := parseRange(r, off+ListHeaderSize, dataEnd, align)
			if err != nil {
				return nil, err
			}
			n.Children = children
		}

		nodes = append(nodes, n)

		pos, err := skipPadding(r, dataEnd, end, align)
		if err != nil {
			return nil, err
		}
		off = min(pos, end)
	}

	return nodes, nil
}

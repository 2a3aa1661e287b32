// Package riff writes and reads RIFF containers: trees of type-tagged,
// length-prefixed chunks as used by AVI and WAVE files.
package riff

import "encoding/binary"

// FourCC is a four byte chunk tag such as "RIFF", "LIST" or "00dc".
type FourCC [4]byte

// Well-known container tags.
var (
	RIFF = NewFourCC("RIFF")
	LIST = NewFourCC("LIST")
)

// NewFourCC converts a 4-character string to a FourCC. It panics if s is
// not exactly four bytes long; tags are compile-time constants in practice.
func NewFourCC(s string) FourCC {
	if len(s) != 4 {
		panic("riff: fourcc must be 4 bytes: " + s)
	}
	var f FourCC
	copy(f[:], s)
	return f
}

// Uint32 returns the tag as a little-endian integer, as stored on disk.
func (f FourCC) Uint32() uint32 {
	return binary.LittleEndian.Uint32(f[:])
}

func (f FourCC) String() string {
	return string(f[:])
}

// IsList reports whether chunks tagged f carry a subtype and children.
func (f FourCC) IsList() bool {
	return f == RIFF || f == LIST
}

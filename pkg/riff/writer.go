// writer.go - Streaming RIFF writer with deferred size patching.
// Chunk headers are written as soon as a chunk is added, with whatever size is
// known at that moment. Sizes are accumulated in memory as payload is appended
// and stale headers are patched in a single pass by Refresh.
package riff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Header sizes on disk.
const (
	LeafHeaderSize = 8  // fourcc + size
	ListHeaderSize = 12 // fourcc + size + subtype

	subtypeSize = 4
)

// Kind distinguishes container chunks from payload chunks.
type Kind int

const (
	List Kind = iota
	Leaf
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Leaf:
		return "leaf"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Chunk is a handle to a chunk owned by a Writer.
type Chunk int

// Root is the parent handle for top-level chunks.
const Root Chunk = -1

// Stat describes a chunk as currently known by the writer.
type Stat struct {
	Kind     Kind
	FourCC   FourCC
	Subtype  FourCC
	Offset   int64  // file offset of the chunk header
	Size     uint32 // accumulated size
	Declared uint32 // size field as last written to disk
}

type chunk struct {
	kind     Kind
	fourcc   FourCC
	subtype  FourCC
	declared uint32
	size     uint32
	offset   int64
	parent   Chunk
	children []Chunk
}

func (c *chunk) headerSize() int64 {
	if c.kind == List {
		return ListHeaderSize
	}
	return LeafHeaderSize
}

func (c *chunk) header() []byte {
	b := make([]byte, c.headerSize())
	copy(b[0:4], c.fourcc[:])
	binary.LittleEndian.PutUint32(b[4:8], c.declared)
	if c.kind == List {
		copy(b[8:12], c.subtype[:])
	}
	return b
}

func (c *chunk) name() string {
	if c.kind == List {
		return c.fourcc.String() + "(" + c.subtype.String() + ")"
	}
	return c.fourcc.String()
}

// Writer builds a chunk tree over a seekable stream. It is not safe for
// concurrent use.
type Writer struct {
	ws     io.WriteSeeker
	pos    int64
	chunks []chunk
	roots  []Chunk
	freed  bool
	log    logrus.FieldLogger
}

// Option configures a Writer.
type Option func(*Writer)

// WithLogger routes chunk-level diagnostics to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWriter returns a writer appending at the current position of ws.
func NewWriter(ws io.WriteSeeker, opts ...Option) (*Writer, error) {
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, ioError("seek", 0, err)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	w := &Writer{ws: ws, pos: pos, log: discard}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Position returns the current append cursor.
func (w *Writer) Position() int64 {
	return w.pos
}

// AddList appends a list chunk as the last child of parent and writes its
// header immediately.
func (w *Writer) AddList(parent Chunk, typ, subtype FourCC) (Chunk, error) {
	return w.add(parent, chunk{
		kind:     List,
		fourcc:   typ,
		subtype:  subtype,
		declared: subtypeSize,
		size:     subtypeSize,
	})
}

// AddLeaf appends a payload chunk as the last child of parent. hint is the
// size first written into the header; when it matches the payload written
// later, Refresh has nothing to patch.
func (w *Writer) AddLeaf(parent Chunk, typ FourCC, hint uint32) (Chunk, error) {
	return w.add(parent, chunk{
		kind:     Leaf,
		fourcc:   typ,
		declared: hint,
	})
}

func (w *Writer) add(parent Chunk, c chunk) (Chunk, error) {
	if w.freed {
		return Root, errors.Wrap(ErrInvalidState, "writer freed")
	}
	if parent != Root {
		p, err := w.lookup(parent)
		if err != nil {
			return Root, err
		}
		if p.kind != List {
			return Root, errors.Wrapf(ErrInvalidState, "%s is not a list chunk", p.name())
		}
	}

	if err := w.fits(parent, int(c.headerSize())); err != nil {
		return Root, errors.Wrapf(err, "add %s", c.name())
	}

	c.offset = w.pos
	c.parent = parent

	w.log.Debugf("writing %s header at %d", c.name(), c.offset)

	hdr := c.header()
	if err := w.append(hdr); err != nil {
		return Root, errors.Wrapf(err, "write %s header", c.name())
	}

	id := Chunk(len(w.chunks))
	w.chunks = append(w.chunks, c)
	if parent == Root {
		w.roots = append(w.roots, id)
	} else {
		w.chunks[parent].children = append(w.chunks[parent].children, id)
	}
	w.accumulate(parent, uint32(len(hdr)))

	return id, nil
}

// Write appends p as payload of c and adds len(p) to c and all its ancestors.
// Payload must be written in file order: once a later chunk has been added,
// earlier chunks can only be changed through Update.
func (w *Writer) Write(c Chunk, p []byte) error {
	rec, err := w.lookup(c)
	if err != nil {
		return err
	}

	w.log.Debugf("writing %d bytes to %s", len(p), rec.name())

	if err := w.fits(c, len(p)); err != nil {
		return errors.Wrapf(err, "write %s payload", rec.name())
	}
	if err := w.append(p); err != nil {
		return errors.Wrapf(err, "write %s payload", rec.name())
	}
	w.accumulate(c, uint32(len(p)))
	return nil
}

// Pad appends n filler bytes after the payload of c. The filler counts toward
// every ancestor of c but not toward c itself.
func (w *Writer) Pad(c Chunk, n int, fill byte) error {
	rec, err := w.lookup(c)
	if err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}

	if err := w.fits(rec.parent, n); err != nil {
		return errors.Wrapf(err, "pad %s", rec.name())
	}
	if err := w.append(bytes.Repeat([]byte{fill}, n)); err != nil {
		return errors.Wrapf(err, "pad %s", rec.name())
	}
	w.accumulate(rec.parent, uint32(n))
	return nil
}

// Update overwrites the start of c's payload in place. It is meant for
// fixed-layout leaves whose contents are only final at the end of a stream.
// The append cursor is restored afterwards.
func (w *Writer) Update(c Chunk, p []byte) error {
	rec, err := w.lookup(c)
	if err != nil {
		return err
	}
	if rec.kind != Leaf {
		return errors.Wrapf(ErrInvalidState, "update %s: not a leaf chunk", rec.name())
	}
	if uint32(len(p)) > rec.size {
		return errors.Wrapf(ErrSizeExceeded, "update %s: %d > %d bytes", rec.name(), len(p), rec.size)
	}

	off := rec.offset + rec.headerSize()
	w.log.Debugf("updating %s at %d: %d bytes", rec.name(), off, len(p))

	return errors.Wrapf(w.writeAt(off, p), "update %s", rec.name())
}

// Refresh rewrites the size field of every chunk whose accumulated size no
// longer matches what is on disk. It returns the number of headers patched.
// A failure part way through leaves the file inconsistent.
func (w *Writer) Refresh() (int, error) {
	if w.freed {
		return 0, errors.Wrap(ErrInvalidState, "writer freed")
	}

	w.log.Debug("refreshing headers")

	n := 0
	if err := w.refresh(w.roots, &n); err != nil {
		return n, err
	}
	return n, nil
}

func (w *Writer) refresh(ids []Chunk, n *int) error {
	for _, id := range ids {
		rec := &w.chunks[id]
		if rec.size != rec.declared {
			w.log.Debugf("correcting %s size: %d => %d", rec.name(), rec.declared, rec.size)

			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], rec.size)
			if err := w.writeAt(rec.offset+4, b[:]); err != nil {
				return errors.Wrapf(err, "refresh %s header", rec.name())
			}
			rec.declared = rec.size
			*n++
		}
		if err := w.refresh(rec.children, n); err != nil {
			return err
		}
	}
	return nil
}

// Children returns the children of c in insertion order. Children(Root)
// returns the top-level chunks.
func (w *Writer) Children(c Chunk) []Chunk {
	if w.freed {
		return nil
	}
	if c == Root {
		return append([]Chunk(nil), w.roots...)
	}
	rec, err := w.lookup(c)
	if err != nil {
		return nil
	}
	return append([]Chunk(nil), rec.children...)
}

// Stat returns the current bookkeeping of c.
func (w *Writer) Stat(c Chunk) (Stat, error) {
	rec, err := w.lookup(c)
	if err != nil {
		return Stat{}, err
	}
	return Stat{
		Kind:     rec.kind,
		FourCC:   rec.fourcc,
		Subtype:  rec.subtype,
		Offset:   rec.offset,
		Size:     rec.size,
		Declared: rec.declared,
	}, nil
}

// Free releases the chunk tree without touching the stream. The writer is
// unusable afterwards.
func (w *Writer) Free() {
	w.log.Debug("freeing chunk tree")
	w.chunks = nil
	w.roots = nil
	w.freed = true
}

func (w *Writer) lookup(c Chunk) (*chunk, error) {
	if w.freed {
		return nil, errors.Wrap(ErrInvalidState, "writer freed")
	}
	if c < 0 || int(c) >= len(w.chunks) {
		return nil, errors.Wrapf(ErrInvalidState, "unknown chunk %d", c)
	}
	return &w.chunks[c], nil
}

// fits checks that appending n bytes under c keeps the cursor and the size of
// c and every ancestor within 32 bits.
func (w *Writer) fits(c Chunk, n int) error {
	if uint64(w.pos)+uint64(n) > math.MaxUint32 {
		return errors.Wrapf(ErrSizeExceeded, "%d bytes at %d pass 4 GiB", n, w.pos)
	}
	for id := c; id != Root; id = w.chunks[id].parent {
		rec := &w.chunks[id]
		if uint64(rec.size)+uint64(n) > math.MaxUint32 {
			return errors.Wrapf(ErrSizeExceeded, "%s would exceed 4 GiB", rec.name())
		}
	}
	return nil
}

func (w *Writer) accumulate(c Chunk, n uint32) {
	for id := c; id != Root; id = w.chunks[id].parent {
		w.chunks[id].size += n
	}
}

func (w *Writer) append(p []byte) error {
	off := w.pos
	n, err := w.ws.Write(p)
	w.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return ioError("write", off, err)
	}
	return nil
}

// writeAt writes p at off and seeks back to the append cursor.
func (w *Writer) writeAt(off int64, p []byte) error {
	if _, err := w.ws.Seek(off, io.SeekStart); err != nil {
		return ioError("seek", off, err)
	}
	n, err := w.ws.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return ioError("write", off, err)
	}
	if _, err := w.ws.Seek(w.pos, io.SeekStart); err != nil {
		return ioError("seek", w.pos, err)
	}
	return nil
}

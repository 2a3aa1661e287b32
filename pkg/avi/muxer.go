// muxer.go - Single video stream AVI writer on top of the RIFF chunk writer.
// Headers are laid out at Open with provisional statistics, frames are
// appended to 'movi' as they arrive, and Close patches the statistics,
// appends the 'idx1' index and fixes up every chunk size.
package avi

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/riff"
)

var (
	// ErrAlreadyOpen is returned by Open on a muxer that is writing a file.
	ErrAlreadyOpen = errors.New("avi: already open")

	// ErrNotOpen is returned by WriteFrame and Close when no file is open.
	ErrNotOpen = errors.New("avi: not open")
)

// frameAlign is the on-disk alignment of frame chunks.
const frameAlign = 4

// padByte fills frame chunks up to frameAlign.
const padByte = 0xFF

type state int

const (
	stateClosed state = iota
	stateOpen
	stateFinalizing
)

// Config describes the single video stream of a file.
type Config struct {
	Codec  riff.FourCC // stream handler and compression, e.g. MJPG or H264
	Width  int
	Height int
	Rate   param.Rational
	Logger logrus.FieldLogger
}

// Muxer writes one AVI file at a time. It is not safe for concurrent use.
type Muxer struct {
	cfg   Config
	log   logrus.FieldLogger
	state state

	path string
	file *os.File
	rw   *riff.Writer

	avi  riff.Chunk
	avih riff.Chunk
	strh riff.Chunk
	movi riff.Chunk

	frames int
	bytes  int64
}

// NewMuxer validates cfg and returns a closed muxer.
func NewMuxer(cfg Config) (*Muxer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > 0xFFFF || cfg.Height > 0xFFFF {
		return nil, errors.Errorf("frame size %dx%d too large", cfg.Width, cfg.Height)
	}
	if !cfg.Rate.Valid() {
		return nil, errors.Errorf("invalid frame rate %s", cfg.Rate)
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Muxer{cfg: cfg, log: log}, nil
}

// Open creates path and writes the header skeleton. On failure nothing is
// left open.
func (m *Muxer) Open(path string) error {
	if m.state != stateClosed {
		return errors.Wrap(ErrAlreadyOpen, m.path)
	}

	log := m.log.WithField("path", path)
	log.Debug("opening AVI file")

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	rw, err := riff.NewWriter(f, riff.WithLogger(log))
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "init %s", path)
	}

	m.path = path
	m.file = f
	m.rw = rw
	m.frames = 0
	m.bytes = 0

	if err := m.init(); err != nil {
		m.teardown()
		return errors.Wrapf(err, "init %s", path)
	}

	m.state = stateOpen
	return nil
}

func (m *Muxer) init() error {
	var err error

	if m.avi, err = m.rw.AddList(riff.Root, riff.RIFF, fccAVI); err != nil {
		return errors.Wrap(err, "add AVI RIFF-list")
	}

	hdrl, err := m.rw.AddList(m.avi, riff.LIST, fccHdrl)
	if err != nil {
		return errors.Wrap(err, "add hdrl list")
	}
	if m.avih, err = m.addFixed(hdrl, fccAvih, m.mainHeader()); err != nil {
		return errors.Wrap(err, "add AVI header chunk")
	}

	strl, err := m.rw.AddList(hdrl, riff.LIST, fccStrl)
	if err != nil {
		return errors.Wrap(err, "add strl list")
	}
	if m.strh, err = m.addFixed(strl, fccStrh, m.streamHeader()); err != nil {
		return errors.Wrap(err, "add stream header chunk")
	}
	if _, err = m.addFixed(strl, fccStrf, m.streamFormat()); err != nil {
		return errors.Wrap(err, "add stream format chunk")
	}

	odml, err := m.rw.AddList(strl, riff.LIST, fccOdml)
	if err != nil {
		return errors.Wrap(err, "add odml list")
	}
	if _, err = m.addFixed(odml, fccDmlh, ODMLHeader{}); err != nil {
		return errors.Wrap(err, "add extended AVI header chunk")
	}

	if m.movi, err = m.rw.AddList(m.avi, riff.LIST, fccMovi); err != nil {
		return errors.Wrap(err, "add movi list")
	}
	return nil
}

// addFixed adds a leaf whose declared size is exactly the encoded size of v.
func (m *Muxer) addFixed(parent riff.Chunk, tag riff.FourCC, v any) (riff.Chunk, error) {
	data, err := marshal(v)
	if err != nil {
		return riff.Root, err
	}
	c, err := m.rw.AddLeaf(parent, tag, uint32(len(data)))
	if err != nil {
		return riff.Root, err
	}
	return c, m.rw.Write(c, data)
}

// WriteFrame appends one compressed frame to 'movi'. Frames are padded with
// 0xFF to a 4 byte boundary; the padding is not part of the chunk size.
func (m *Muxer) WriteFrame(p []byte) error {
	if m.state != stateOpen {
		return ErrNotOpen
	}

	leaf, err := m.rw.AddLeaf(m.movi, FrameTag, uint32(len(p)))
	if err != nil {
		return errors.Wrapf(err, "add frame %d", m.frames)
	}
	if err := m.rw.Write(leaf, p); err != nil {
		return errors.Wrapf(err, "write frame %d", m.frames)
	}
	if err := m.rw.Pad(leaf, padding(len(p)), padByte); err != nil {
		return errors.Wrapf(err, "align frame %d", m.frames)
	}

	m.frames++
	m.bytes += int64(len(p))
	return nil
}

func padding(n int) int {
	return (frameAlign - n%frameAlign) % frameAlign
}

// Close finalizes the headers and the index and closes the file. If it
// fails the file is left as is and Abort must be called.
func (m *Muxer) Close() error {
	switch m.state {
	case stateClosed:
		return ErrNotOpen
	case stateFinalizing:
		return errors.Wrap(ErrNotOpen, "previous close failed")
	}

	m.state = stateFinalizing
	log := m.log.WithField("path", m.path)
	log.WithField("frames", m.frames).Debug("finalizing AVI file")

	if err := m.finalize(); err != nil {
		return errors.Wrapf(err, "finalize %s", m.path)
	}

	if err := m.file.Sync(); err != nil {
		return errors.Wrapf(err, "flush %s", m.path)
	}
	if err := m.file.Close(); err != nil {
		return errors.Wrapf(err, "close %s", m.path)
	}

	m.file = nil
	m.rw = nil
	m.state = stateClosed
	return nil
}

func (m *Muxer) finalize() error {
	avih, err := marshal(m.mainHeader())
	if err != nil {
		return err
	}
	if err := m.rw.Update(m.avih, avih); err != nil {
		return errors.Wrap(err, "update AVI header chunk")
	}

	strh, err := marshal(m.streamHeader())
	if err != nil {
		return err
	}
	if err := m.rw.Update(m.strh, strh); err != nil {
		return errors.Wrap(err, "update stream header chunk")
	}

	if err := m.writeIndex(); err != nil {
		return err
	}

	if _, err := m.rw.Refresh(); err != nil {
		return errors.Wrap(err, "refresh RIFF headers")
	}

	m.rw.Free()
	return nil
}

// writeIndex appends 'idx1' with one record per 'movi' child in write order.
// Every frame is flagged as a keyframe.
func (m *Muxer) writeIndex() error {
	frames := m.rw.Children(m.movi)

	idx1, err := m.rw.AddLeaf(m.avi, fccIdx1, uint32(IndexEntrySize*len(frames)))
	if err != nil {
		return errors.Wrap(err, "add index chunk")
	}

	entries := make([]IndexEntry, 0, len(frames))
	for _, c := range frames {
		st, err := m.rw.Stat(c)
		if err != nil {
			return errors.Wrap(err, "stat frame chunk")
		}
		entries = append(entries, IndexEntry{
			ChunkID: FrameTag,
			Flags:   IndexKeyframe | IndexTwoCC,
			Offset:  uint32(st.Offset),
			Size:    st.Size,
		})
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := marshal(entries)
	if err != nil {
		return err
	}
	return errors.Wrap(m.rw.Write(idx1, data), "write index")
}

// Abort releases the file and chunk tree without finalizing. Whatever was
// written stays on disk.
func (m *Muxer) Abort() error {
	if m.state == stateClosed {
		return nil
	}
	m.log.WithField("path", m.path).Warn("aborting AVI file")
	return m.teardown()
}

func (m *Muxer) teardown() error {
	var err error
	if m.rw != nil {
		m.rw.Free()
		m.rw = nil
	}
	if m.file != nil {
		err = m.file.Close()
		m.file = nil
	}
	m.state = stateClosed
	return err
}

// FramesWritten returns the number of frames appended since Open.
func (m *Muxer) FramesWritten() int {
	return m.frames
}

// BytesWritten returns the total frame payload appended since Open,
// excluding chunk headers and padding.
func (m *Muxer) BytesWritten() int64 {
	return m.bytes
}

// Path returns the file name given to the last Open.
func (m *Muxer) Path() string {
	return m.path
}

func (m *Muxer) rawFrameSize() uint64 {
	return uint64(m.cfg.Width) * uint64(m.cfg.Height) * 3
}

// maxBytesPerSec estimates the data rate from the frames written so far, or
// from the uncompressed frame size before any frame exists.
func (m *Muxer) maxBytesPerSec() uint32 {
	num, den := uint64(m.cfg.Rate.Num), uint64(m.cfg.Rate.Den)
	if m.frames == 0 {
		return uint32(m.rawFrameSize() * num / den)
	}
	perFrame := (uint64(m.bytes) + uint64(m.frames) - 1) / uint64(m.frames)
	return uint32((perFrame*num + den - 1) / den)
}

func (m *Muxer) mainHeader() MainHeader {
	return MainHeader{
		MicroSecPerFrame:    uint32(1000000 * uint64(m.cfg.Rate.Den) / uint64(m.cfg.Rate.Num)),
		MaxBytesPerSec:      m.maxBytesPerSec(),
		Flags:               FlagHasIndex,
		TotalFrames:         uint32(m.frames),
		Streams:             1,
		SuggestedBufferSize: uint32(m.rawFrameSize()),
		Width:               uint32(m.cfg.Width),
		Height:              uint32(m.cfg.Height),
	}
}

func (m *Muxer) streamHeader() StreamHeader {
	return StreamHeader{
		Type:                fccVids,
		Handler:             m.cfg.Codec,
		Scale:               uint32(m.cfg.Rate.Den),
		Rate:                uint32(m.cfg.Rate.Num),
		Length:              uint32(m.frames),
		SuggestedBufferSize: uint32(m.rawFrameSize()),
		Quality:             -1,
		Frame: Rect{
			Right:  uint16(m.cfg.Width),
			Bottom: uint16(m.cfg.Height),
		},
	}
}

func (m *Muxer) streamFormat() BitmapInfoHeader {
	return BitmapInfoHeader{
		Size:        40,
		Width:       int32(m.cfg.Width),
		Height:      int32(m.cfg.Height),
		Planes:      1,
		BitCount:    24,
		Compression: m.cfg.Codec,
		SizeImage:   uint32(m.rawFrameSize()),
	}
}

package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/riff"
)

// DefaultFFmpeg is the binary looked up in PATH when Config.FFmpeg is empty.
const DefaultFFmpeg = "ffmpeg"

// H264 compresses frames with libx264 running inside an ffmpeg child
// process. Raw RGB frames go to its stdin; its Annex-B output is split into
// access units by a reader goroutine.
type H264 struct {
	width  int
	height int
	log    logrus.FieldLogger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	rgb    []byte

	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	done   bool
	err    error
	closed bool // stdin closed

	submitted int
	emitted   int
}

// FFmpegArgs returns the ffmpeg command line used for cfg.
func FFmpegArgs(cfg Config) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", cfg.Rate.String(),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-profile:v", "high",
		"-preset", "veryslow",
		"-tune", "film",
		"-pix_fmt", "yuv420p",
		"-x264-params", "aud=1",
		"-f", "h264",
		"-",
	}
}

// NewH264 starts the encoder process.
func NewH264(cfg Config) (*H264, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width%2 != 0 || cfg.Height%2 != 0 {
		return nil, errors.Errorf("h264: invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	if !cfg.Rate.Valid() {
		return nil, errors.Errorf("h264: invalid frame rate %s", cfg.Rate)
	}

	bin := cfg.FFmpeg
	if bin == "" {
		bin = DefaultFFmpeg
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, errors.Wrapf(err, "h264: %s not found", bin)
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	e := &H264{
		width:  cfg.Width,
		height: cfg.Height,
		log:    log.WithField("encoder", "h264"),
		rgb:    make([]byte, cfg.Width*cfg.Height*3),
	}
	e.cond = sync.NewCond(&e.mu)

	args := FFmpegArgs(cfg)
	e.cmd = exec.Command(path, args...)
	e.cmd.Stderr = &e.stderr

	if e.stdin, err = e.cmd.StdinPipe(); err != nil {
		return nil, errors.Wrap(err, "h264: stdin pipe")
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "h264: stdout pipe")
	}

	e.log.Debugf("starting %s %s", path, strings.Join(args, " "))
	if err := e.cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "h264: start %s", path)
	}

	go e.read(stdout)
	return e, nil
}

func (e *H264) read(r io.Reader) {
	s := NewAccessUnitScanner(r)
	for s.Scan() {
		au := append([]byte(nil), s.Bytes()...)
		e.mu.Lock()
		e.queue = append(e.queue, au)
		e.cond.Broadcast()
		e.mu.Unlock()
	}

	err := s.Err()
	if err != nil {
		// stdout is no longer drained
		e.cmd.Process.Kill()
	}
	if werr := e.cmd.Wait(); werr != nil && err == nil {
		err = errors.Wrapf(werr, "ffmpeg: %s", strings.TrimSpace(e.stderr.String()))
	}

	e.mu.Lock()
	e.done = true
	e.err = err
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *H264) FourCC() riff.FourCC {
	return riff.NewFourCC("H264")
}

func (e *H264) Encode(img image.Image) ([]byte, error) {
	if e.closed {
		return nil, errors.New("h264: encode after flush")
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return nil, errors.Errorf("h264: frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), e.width, e.height)
	}

	e.pack(img)
	if _, err := e.stdin.Write(e.rgb); err != nil {
		return nil, errors.Wrapf(err, "h264: write frame %d", e.submitted)
	}
	e.submitted++

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		if e.done && e.err != nil {
			return nil, e.err
		}
		return nil, ErrPending
	}
	return e.pop(), nil
}

// pack converts img to packed RGB24.
func (e *H264) pack(img image.Image) {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, e.width, e.height))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	i := 0
	for y := 0; y < e.height; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+e.width*4]
		for x := 0; x < len(row); x += 4 {
			e.rgb[i] = row[x]
			e.rgb[i+1] = row[x+1]
			e.rgb[i+2] = row[x+2]
			i += 3
		}
	}
}

func (e *H264) pop() []byte {
	au := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	e.emitted++
	return au
}

func (e *H264) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted - e.emitted
}

func (e *H264) Flush() ([]byte, error) {
	if !e.closed {
		e.closed = true
		if err := e.stdin.Close(); err != nil {
			return nil, errors.Wrap(err, "h264: close stdin")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) == 0 && !e.done {
		e.cond.Wait()
	}
	if len(e.queue) > 0 {
		return e.pop(), nil
	}
	if e.err != nil {
		return nil, e.err
	}
	return nil, errors.Wrapf(io.ErrUnexpectedEOF, "h264: %d frames never came out",
		e.submitted-e.emitted)
}

func (e *H264) Close() error {
	if !e.closed {
		e.closed = true
		e.stdin.Close()
	}

	e.mu.Lock()
	for !e.done {
		e.cond.Wait()
	}
	dropped := len(e.queue)
	e.queue = nil
	err := e.err
	e.mu.Unlock()

	if dropped > 0 {
		e.log.Warnf("dropping %d encoded frames", dropped)
	}
	return err
}

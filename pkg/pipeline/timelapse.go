package pipeline

import (
	"context"
	"image/color"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/avi"
	"github.com/cedricshih/pit/pkg/codec"
	"github.com/cedricshih/pit/pkg/imaging"
	"github.com/cedricshih/pit/pkg/overlay"
	"github.com/cedricshih/pit/pkg/param"
)

// sizeAlign is the required multiple of the output width and height.
const sizeAlign = 8

// TimelapseOptions configures Timelapse.
type TimelapseOptions struct {
	Output string
	Size   param.Dim
	Rate   param.Rational

	// Duration caps the video length in seconds; 0 means all frames.
	Duration float64

	// Stretch, when set, is applied to every frame. Percentile bounds are
	// resolved once on the picture at index Reference.
	Stretch   *param.Range
	Reference int

	// FadeIn and FadeOut are in seconds.
	FadeIn  float64
	FadeOut float64

	Codec   string
	Quality int
	FFmpeg  string

	// Label is burned into every frame when not empty.
	Label      string
	LabelColor color.RGBA
	LabelFont  string

	Progress Progress
	Logger   logrus.FieldLogger
}

// Validate checks opts independently of the input.
func (o *TimelapseOptions) Validate() error {
	if o.Output == "" {
		return errors.Wrap(ErrUsage, "no output file")
	}
	if o.Size.Width <= 0 || o.Size.Height <= 0 ||
		o.Size.Width%sizeAlign != 0 || o.Size.Height%sizeAlign != 0 {
		return errors.Wrapf(ErrUsage, "invalid size %s; must be multiples of %d", o.Size, sizeAlign)
	}
	if !o.Rate.Valid() {
		return errors.Wrapf(ErrUsage, "invalid frame rate %s", o.Rate)
	}
	if o.Duration < 0 || o.FadeIn < 0 || o.FadeOut < 0 {
		return errors.Wrap(ErrUsage, "durations must not be negative")
	}
	if o.Reference < 0 {
		return errors.Wrapf(ErrUsage, "invalid reference picture %d", o.Reference)
	}
	return nil
}

type timelapse struct {
	opts     TimelapseOptions
	log      logrus.FieldLogger
	progress Progress

	levels imaging.Levels
	fades  []int
	label  *overlay.Label
	enc    codec.Encoder
	mux    *avi.Muxer
}

// Timelapse encodes files, in order, into an AVI video.
//
// Pictures smaller than the output or of a different aspect ratio are
// skipped. Pass 1 transcodes every picture; pass 2 drains frames the encoder
// held back. On error the partial file is left on disk.
func Timelapse(ctx context.Context, files []string, opts TimelapseOptions) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}

	t := &timelapse{
		opts:     opts,
		log:      loggerOf(opts.Logger),
		progress: progressOf(opts.Progress),
		levels:   imaging.FullRange,
	}

	total := len(files)
	if limit := opts.Rate.Frames(opts.Duration); limit > 0 && total > limit {
		total = limit
	}
	files = files[:total]

	var err error
	if t.fades, err = Fades(total, opts.Rate, opts.FadeIn, opts.FadeOut); err != nil {
		return nil, err
	}
	if err := t.resolveStretch(files); err != nil {
		return nil, err
	}
	if opts.Label != "" {
		fonts, err := overlay.NewFontManager(opts.LabelFont, t.log)
		if err != nil {
			return nil, err
		}
		t.label = overlay.NewLabel(opts.Label, opts.LabelColor, fonts)
	}

	t.enc, err = codec.New(opts.Codec, codec.Config{
		Width:   opts.Size.Width,
		Height:  opts.Size.Height,
		Rate:    opts.Rate,
		Quality: opts.Quality,
		FFmpeg:  opts.FFmpeg,
		Logger:  t.log,
	})
	if err != nil {
		return nil, err
	}
	defer t.enc.Close()

	t.mux, err = avi.NewMuxer(avi.Config{
		Codec:  t.enc.FourCC(),
		Width:  opts.Size.Width,
		Height: opts.Size.Height,
		Rate:   opts.Rate,
		Logger: t.log,
	})
	if err != nil {
		return nil, err
	}
	if err := t.mux.Open(opts.Output); err != nil {
		return nil, err
	}

	if err := t.run(ctx, files); err != nil {
		t.mux.Abort()
		return nil, err
	}
	if err := t.mux.Close(); err != nil {
		t.mux.Abort()
		return nil, err
	}

	st, err := os.Stat(opts.Output)
	if err != nil {
		return nil, err
	}
	return &Report{
		Output: opts.Output,
		Size:   opts.Size,
		Bytes:  st.Size(),
		Rate:   opts.Rate,
		Frames: t.mux.FramesWritten(),
	}, nil
}

func (t *timelapse) resolveStretch(files []string) error {
	if t.opts.Stretch == nil {
		return nil
	}

	var hist *imaging.Histogram
	if NeedsHistogram(*t.opts.Stretch) {
		if t.opts.Reference >= len(files) {
			return errors.Wrapf(ErrUsage, "reference picture %d out of %d", t.opts.Reference, len(files))
		}
		ref := files[t.opts.Reference]
		img, err := imaging.Load(ref)
		if err != nil {
			return errors.Wrap(err, "load reference picture")
		}
		hist = imaging.NewHistogram(img)
		t.log.WithField("file", ref).Info("stretching by reference picture")
	}

	levels, err := levelsFor(*t.opts.Stretch, hist)
	if err != nil {
		return err
	}
	t.log.Infof("stretch %s => %d:%d", t.opts.Stretch, levels.Black, levels.White)
	t.levels = levels
	return nil
}

func (t *timelapse) run(ctx context.Context, files []string) error {
	t.progress.Begin("PASS 1", len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			t.progress.End()
			return err
		}

		status, err := t.transcode(i, len(files), path)
		if errors.Is(err, ErrInvalidFrame) {
			t.log.WithField("file", path).Warn(err)
			status = StatusSkipped
		} else if err != nil {
			t.progress.End()
			return errors.Wrapf(err, "transcode %s", path)
		}
		t.progress.Item(i, path, status)
	}
	t.progress.End()

	pending := t.enc.Pending()
	if pending == 0 {
		return nil
	}

	t.progress.Begin("PASS 2", pending)
	defer t.progress.End()
	for i := 0; t.enc.Pending() > 0; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := t.enc.Flush()
		if err != nil {
			return errors.Wrap(err, "flush encoder")
		}
		if err := t.mux.WriteFrame(data); err != nil {
			return err
		}
		t.progress.Item(i, "", StatusOK)
	}
	return nil
}

// transcode turns the picture at path into one submitted video frame.
func (t *timelapse) transcode(index, total int, path string) (string, error) {
	dim, err := imaging.Size(path)
	if err != nil {
		return "", errors.Wrap(ErrInvalidFrame, err.Error())
	}
	if dim.Width < t.opts.Size.Width || dim.Height < t.opts.Size.Height {
		return "", errors.Wrapf(ErrInvalidFrame, "%s is smaller than %s", dim, t.opts.Size)
	}
	if !imaging.SameAspect(dim, t.opts.Size) {
		return "", errors.Wrapf(ErrInvalidFrame, "aspect ratio of %s does not match %s", dim, t.opts.Size)
	}

	img, err := imaging.Load(path)
	if err != nil {
		return "", errors.Wrap(ErrInvalidFrame, err.Error())
	}

	imaging.Stretch(img, t.levels)
	imaging.Offset(img, t.fades[index])
	img = imaging.Resize(img, t.opts.Size.Width, t.opts.Size.Height)

	if t.label != nil {
		if err := t.label.Draw(img, overlay.Frame{Index: index, Total: total, Path: path}); err != nil {
			return "", err
		}
	}

	data, err := t.enc.Encode(img)
	if errors.Is(err, codec.ErrPending) {
		return StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	if err := t.mux.WriteFrame(data); err != nil {
		return "", err
	}
	return StatusOK, nil
}

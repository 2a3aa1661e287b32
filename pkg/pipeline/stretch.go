package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/imaging"
	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/still"
)

// ParseStretch parses a "black:white" contrast range. Bounds are channel
// values 0..255 or percentiles with a trailing '%'. 0% and 100% are the
// same as 0 and 255 and need no histogram.
func ParseStretch(s string) (param.Range, error) {
	r, err := param.ParseRange(s)
	if err != nil {
		return param.Range{}, err
	}

	for _, b := range []*param.Bound{&r.Lo, &r.Hi} {
		switch {
		case b.Value < 0:
			return param.Range{}, errors.Wrapf(param.ErrSyntax, "contrast %q: negative bound", s)
		case b.Percent && b.Value > 100:
			return param.Range{}, errors.Wrapf(param.ErrSyntax, "contrast %q: above 100%%", s)
		case !b.Percent && b.Value > imaging.Max:
			return param.Range{}, errors.Wrapf(param.ErrSyntax, "contrast %q: above %d", s, imaging.Max)
		}
	}

	if r.Lo.Percent && r.Lo.Value == 0 {
		r.Lo = param.Bound{Value: imaging.Min}
	}
	if r.Hi.Percent && r.Hi.Value == 100 {
		r.Hi = param.Bound{Value: imaging.Max}
	}
	return r, nil
}

// NeedsHistogram reports whether r has a percentile bound.
func NeedsHistogram(r param.Range) bool {
	return r.Lo.Percent || r.Hi.Percent
}

// levelsFor resolves r against the histogram of img when needed.
func levelsFor(r param.Range, img *imaging.Histogram) (imaging.Levels, error) {
	if !NeedsHistogram(r) {
		img = nil
	}
	return imaging.Resolve(r, img)
}

// StretchOptions configures Stretch.
type StretchOptions struct {
	// Contrast is the black and white point range, resolved per picture.
	Contrast param.Range

	// Output replaces the input when empty. It is only valid with a single
	// input.
	Output string

	Quality  int
	Progress Progress
	Logger   logrus.FieldLogger
}

// Stretch applies a contrast stretch to each of files.
func Stretch(ctx context.Context, files []string, opts StretchOptions) error {
	if len(files) == 0 {
		return ErrNoInput
	}
	if opts.Output != "" && len(files) > 1 {
		return errors.Wrap(ErrUsage, "only one input is accepted when an output is given")
	}
	log := loggerOf(opts.Logger)
	progress := progressOf(opts.Progress)

	progress.Begin("", len(files))
	defer progress.End()

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		levels, err := stretchFile(path, opts)
		if err != nil {
			return errors.Wrapf(err, "stretch %s", path)
		}
		log.WithField("file", path).Debugf("stretched %d:%d", levels.Black, levels.White)
		progress.Item(i, path, fmt.Sprintf("%d:%d => %s", levels.Black, levels.White, StatusOK))
	}
	return nil
}

func stretchFile(path string, opts StretchOptions) (imaging.Levels, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return imaging.Levels{}, err
	}

	var hist *imaging.Histogram
	if NeedsHistogram(opts.Contrast) {
		hist = imaging.NewHistogram(img)
	}
	levels, err := levelsFor(opts.Contrast, hist)
	if err != nil {
		return imaging.Levels{}, err
	}
	imaging.Stretch(img, levels)

	out := opts.Output
	if out == "" {
		out = path
	}
	return levels, still.Save(out, img, opts.Quality)
}

func loggerOf(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	nop := logrus.New()
	nop.SetOutput(io.Discard)
	return nop
}

func progressOf(p Progress) Progress {
	if p != nil {
		return p
	}
	return nopProgress{}
}

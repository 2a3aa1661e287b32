package pipeline

import (
	"context"
	"image"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cedricshih/pit/pkg/imaging"
	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/still"
)

// StartrailOptions configures Startrail.
type StartrailOptions struct {
	Output string

	// Stretch, when set, is applied to the composite. Percentile bounds are
	// resolved on the composite itself.
	Stretch *param.Range

	Quality  int
	Progress Progress
	Logger   logrus.FieldLogger
}

// Startrail composites files by keeping the brightest value of every
// channel. The first picture fixes the size; pictures of any other size
// are skipped.
func Startrail(ctx context.Context, files []string, opts StartrailOptions) (*Report, error) {
	if opts.Output == "" {
		return nil, errors.Wrap(ErrUsage, "no output file")
	}
	if _, err := still.FormatOf(opts.Output); err != nil {
		return nil, errors.Wrap(ErrUsage, err.Error())
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}
	log := loggerOf(opts.Logger)
	progress := progressOf(opts.Progress)

	var out *image.RGBA
	progress.Begin("", len(files))
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			progress.End()
			return nil, err
		}

		img, err := imaging.Load(path)
		if err != nil {
			progress.End()
			return nil, err
		}

		if out == nil {
			out = img
		} else if err := imaging.Lighten(out, img); errors.Is(err, imaging.ErrSizeMismatch) {
			log.WithField("file", path).Warnf("size mismatch: %v", img.Bounds().Size())
			progress.Item(i, path, StatusSkipped)
			continue
		} else if err != nil {
			progress.End()
			return nil, err
		}
		progress.Item(i, path, StatusOK)
	}
	progress.End()

	if opts.Stretch != nil {
		var hist *imaging.Histogram
		if NeedsHistogram(*opts.Stretch) {
			hist = imaging.NewHistogram(out)
		}
		levels, err := levelsFor(*opts.Stretch, hist)
		if err != nil {
			return nil, err
		}
		log.Infof("stretch %s => %d:%d", opts.Stretch, levels.Black, levels.White)
		imaging.Stretch(out, levels)
	}

	if err := still.Save(opts.Output, out, opts.Quality); err != nil {
		return nil, err
	}

	st, err := os.Stat(opts.Output)
	if err != nil {
		return nil, err
	}
	return &Report{
		Output: opts.Output,
		Size:   param.Dim{Width: out.Rect.Dx(), Height: out.Rect.Dy()},
		Bytes:  st.Size(),
	}, nil
}

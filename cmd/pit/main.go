// pit turns numbered photographs into time-lapse videos, star-trail
// composites and contrast stretched copies.
//
// Usage:
//
//	pit time    [options] <W>x<H> [file...]
//	pit star    [options] [file...]
//	pit stretch [options] [file...]
//	pit info    <file.avi>
//	pit help
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/cedricshih/pit/pkg/config"
	"github.com/cedricshih/pit/pkg/filelist"
	"github.com/cedricshih/pit/pkg/overlay"
	"github.com/cedricshih/pit/pkg/param"
	"github.com/cedricshih/pit/pkg/pipeline"
)

// exitUsage is EINVAL, returned for malformed command lines.
const exitUsage = 22

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1], os.Args[2:], os.Stdout, os.Stderr)
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "time":
		return runTime(ctx, args, stdout, stderr)
	case "star":
		return runStar(ctx, args, stdout, stderr)
	case "stretch":
		return runStretch(ctx, args, stdout, stderr)
	case "info":
		return runInfo(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return errors.Wrapf(pipeline.ErrUsage, "unknown command %q", cmd)
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrUsage),
		errors.Is(err, pipeline.ErrNoInput),
		errors.Is(err, pipeline.ErrFadeTooLong),
		errors.Is(err, param.ErrSyntax):
		return exitUsage
	}
	return 1
}

// options holds the flags shared by the picture commands.
type options struct {
	output   string
	quality  int
	template string
	verbose  int
	config   string

	fs  *flag.FlagSet
	cfg *config.Config
	log *logrus.Logger
}

func newOptions(name, output string, stderr io.Writer) *options {
	o := &options{}
	o.fs = flag.NewFlagSet(name, flag.ContinueOnError)
	o.fs.SetOutput(stderr)
	o.fs.StringVarP(&o.output, "output", "o", output, "Output file path")
	o.fs.IntVarP(&o.quality, "quality", "q", 0, "JPEG quality 1..100 (default from config, 95)")
	o.fs.StringVarP(&o.template, "template", "t", "", "Expand the file argument as a printf template over <begin>:<end>")
	o.fs.CountVarP(&o.verbose, "verbose", "v", "Log more, repeat for more detail")
	o.fs.StringVar(&o.config, "config", "", "Defaults file (default "+config.DefaultPath()+")")
	return o
}

// parse parses args and sets up configuration and logging.
func (o *options) parse(args []string, stderr io.Writer) error {
	if err := o.fs.Parse(args); errors.Is(err, flag.ErrHelp) {
		return err
	} else if err != nil {
		return errors.Wrap(pipeline.ErrUsage, err.Error())
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if !o.fs.Changed("quality") {
		o.quality = cfg.Quality
	} else if o.quality < 1 || o.quality > 100 {
		return errors.Wrapf(pipeline.ErrUsage, "quality %d out of range 1..100", o.quality)
	}

	o.log, err = config.NewLogger(stderr, cfg.LogLevel, o.verbose)
	return err
}

// inputs returns the sorted input files named by args. With no argument
// the current directory is scanned for JPEG files other than the output.
func (o *options) inputs(args []string) ([]string, error) {
	set := filelist.New(o.log)

	switch {
	case o.template != "":
		if len(args) != 1 {
			return nil, errors.Wrap(pipeline.ErrUsage, "--template takes exactly one file argument")
		}
		lo, hi, err := param.ParseIntRange(o.template)
		if err != nil {
			return nil, err
		}
		if _, err := set.Expand(args[0], lo, hi); err != nil {
			return nil, errors.Wrap(pipeline.ErrUsage, err.Error())
		}
	case len(args) == 0:
		if _, err := set.Scan(".", filelist.JPEG(o.output)); err != nil {
			return nil, err
		}
	default:
		for _, path := range args {
			err := set.Add(path)
			if errors.Is(err, filelist.ErrExist) {
				o.log.Infof("exists: %s", path)
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if set.Len() == 0 {
		return nil, pipeline.ErrNoInput
	}
	o.log.Debugf("%d input files", set.Len())
	return set.Paths(), nil
}

func (o *options) progress(stdout io.Writer) pipeline.Progress {
	return pipeline.NewProgress(o.cfg.Progress, stdout)
}

func runTime(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o := newOptions("time", "timelapse.avi", stderr)
	var (
		fps        string
		duration   float64
		reference  int
		stretch    string
		fade       string
		codecName  string
		label      string
		labelColor string
		labelFont  string
	)
	o.fs.StringVarP(&fps, "fps", "f", "", "Frame rate, <num>[/<den>] (default from config, 24)")
	o.fs.Float64VarP(&duration, "duration", "d", 0, "Maximum video length in seconds, 0 for all frames")
	o.fs.IntVarP(&reference, "reference", "r", 0, "Index of the picture percentile stretch bounds are taken from")
	o.fs.StringVarP(&stretch, "stretch", "s", "", "Contrast stretch, <black>[%]:<white>[%]")
	o.fs.StringVarP(&fade, "fade", "F", "", "Fade in and out durations in seconds, <in>:<out>")
	o.fs.StringVarP(&codecName, "codec", "c", "", "Video codec: mjpeg or h264 (default from config, mjpeg)")
	o.fs.StringVar(&label, "label", "", "Text burned into every frame; {frame}, {total} and {file} are expanded")
	o.fs.StringVar(&labelColor, "label-color", "", "Label colour, #rrggbb[aa] (default from config, #ffffff)")
	o.fs.StringVar(&labelFont, "label-font", "", "TrueType font for the label (default Go Regular)")

	if err := o.parse(args, stderr); err != nil {
		return err
	}
	if o.fs.NArg() < 1 {
		return errors.Wrap(pipeline.ErrUsage, "missing output size <W>x<H>")
	}
	size, err := param.ParseDim(o.fs.Arg(0))
	if err != nil {
		return err
	}

	if fps == "" {
		fps = o.cfg.FPS
	}
	rate, err := param.ParseRational(fps)
	if err != nil {
		return err
	}
	if codecName == "" {
		codecName = o.cfg.Codec
	}
	if labelColor == "" {
		labelColor = o.cfg.LabelColor
	}
	col, err := overlay.ParseColor(labelColor)
	if err != nil {
		return errors.Wrap(pipeline.ErrUsage, err.Error())
	}
	if labelFont == "" {
		labelFont = o.cfg.LabelFont
	}

	opts := pipeline.TimelapseOptions{
		Output:     o.output,
		Size:       size,
		Rate:       rate,
		Duration:   duration,
		Reference:  reference,
		Codec:      codecName,
		Quality:    o.quality,
		FFmpeg:     o.cfg.FFmpeg,
		Label:      label,
		LabelColor: col,
		LabelFont:  labelFont,
		Progress:   o.progress(stdout),
		Logger:     o.log,
	}
	if stretch != "" {
		r, err := pipeline.ParseStretch(stretch)
		if err != nil {
			return err
		}
		opts.Stretch = &r
	}
	if fade != "" {
		if opts.FadeIn, opts.FadeOut, err = parseFade(fade); err != nil {
			return err
		}
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	files, err := o.inputs(o.fs.Args()[1:])
	if err != nil {
		return err
	}

	report, err := pipeline.Timelapse(ctx, files, opts)
	if err != nil {
		return err
	}
	report.Print(stdout)
	return nil
}

// parseFade parses "<in>:<out>" in seconds.
func parseFade(s string) (in, out float64, err error) {
	ins, outs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.Wrapf(param.ErrSyntax, "fade %q", s)
	}
	if in, err = strconv.ParseFloat(ins, 64); err != nil {
		return 0, 0, errors.Wrapf(param.ErrSyntax, "fade %q", s)
	}
	if out, err = strconv.ParseFloat(outs, 64); err != nil {
		return 0, 0, errors.Wrapf(param.ErrSyntax, "fade %q", s)
	}
	if math.IsInf(in, 0) || math.IsInf(out, 0) || math.IsNaN(in) || math.IsNaN(out) {
		return 0, 0, errors.Wrapf(param.ErrSyntax, "fade %q is not finite", s)
	}
	if in < 0 || out < 0 {
		return 0, 0, errors.Wrapf(param.ErrSyntax, "fade %q is negative", s)
	}
	return in, out, nil
}

func runStar(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o := newOptions("star", "startrails.jpg", stderr)
	var stretch string
	o.fs.StringVarP(&stretch, "stretch", "s", "", "Contrast stretch of the composite, <black>[%]:<white>[%]")

	if err := o.parse(args, stderr); err != nil {
		return err
	}

	opts := pipeline.StartrailOptions{
		Output:   o.output,
		Quality:  o.quality,
		Progress: o.progress(stdout),
		Logger:   o.log,
	}
	if stretch != "" {
		r, err := pipeline.ParseStretch(stretch)
		if err != nil {
			return err
		}
		opts.Stretch = &r
	}

	files, err := o.inputs(o.fs.Args())
	if err != nil {
		return err
	}

	report, err := pipeline.Startrail(ctx, files, opts)
	if err != nil {
		return err
	}
	report.Print(stdout)
	return nil
}

func runStretch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o := newOptions("stretch", "", stderr)
	var contrast string
	o.fs.StringVarP(&contrast, "contrast", "c", "0:255", "Black and white points, <black>[%]:<white>[%]")

	if err := o.parse(args, stderr); err != nil {
		return err
	}
	r, err := pipeline.ParseStretch(contrast)
	if err != nil {
		return err
	}

	files, err := o.inputs(o.fs.Args())
	if err != nil {
		return err
	}

	return pipeline.Stretch(ctx, files, pipeline.StretchOptions{
		Contrast: r,
		Output:   o.output,
		Quality:  o.quality,
		Progress: o.progress(stdout),
		Logger:   o.log,
	})
}

const usage = `pit - Photo Interval Tools

USAGE:
    pit time    [options] <W>x<H> [file...]
    pit star    [options] [file...]
    pit stretch [options] [file...]
    pit info    <file.avi>
    pit help

Without file arguments the JPEG files of the current directory are used.

COMMON OPTIONS:
    -o, --output <path>        Output file path
    -q, --quality <1..100>     JPEG quality (default: 95)
    -t, --template <b>:<e>     Expand the file argument as a printf template
    -v, --verbose              Log more, repeat for more detail
    --config <path>            Defaults file (YAML)

TIME OPTIONS (output: timelapse.avi):
    -f, --fps <num>[/<den>]    Frame rate (default: 24)
    -d, --duration <seconds>   Maximum video length
    -s, --stretch <b>[%]:<w>[%] Contrast stretch of every frame
    -r, --reference <index>    Picture percentile bounds are taken from
    -F, --fade <in>:<out>      Fade in and out, in seconds
    -c, --codec <name>         mjpeg or h264 (h264 needs ffmpeg)
    --label <text>             Text burned into frames: {frame} {total} {file}
    --label-color <#rrggbb>    Label colour (default: #ffffff)
    --label-font <path>        TrueType label font

STAR OPTIONS (output: startrails.jpg):
    -s, --stretch <b>[%]:<w>[%] Contrast stretch of the composite

STRETCH OPTIONS (in place without -o):
    -c, --contrast <b>[%]:<w>[%] Black and white points (default: 0:255)

EXAMPLES:
    pit time -f 30 -F 2:3 1920x1080
    pit time -c h264 -s 1%:99.5% -t 1:500 1280x720 IMG_%04d.JPG
    pit star -o trails.png *.JPG
    pit stretch -c 2%:98% -o out.jpg IMG_0001.JPG`

func printUsage(w io.Writer) {
	io.WriteString(w, usage+"\n")
}

package pipeline

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/cedricshih/pit/pkg/config"
)

// Item statuses.
const (
	StatusOK      = "OK"
	StatusPending = "Pending"
	StatusSkipped = "Skipped"
)

// Progress reports per-item progress of a pass over the input.
type Progress interface {
	// Begin starts a pass of total items.
	Begin(title string, total int)
	// Item records the outcome of the index-th item (0-based).
	Item(index int, path, status string)
	// End finishes the pass.
	End()
}

// NewProgress returns the progress display selected by mode, writing to
// out. ProgressAuto shows a bar when out is a terminal.
func NewProgress(mode string, out io.Writer) Progress {
	switch mode {
	case config.ProgressNone:
		return nopProgress{}
	case config.ProgressBar:
		return &barProgress{out: out}
	case config.ProgressLines:
		return &lineProgress{out: out}
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &barProgress{out: out}
	}
	return &lineProgress{out: out}
}

type nopProgress struct{}

func (nopProgress) Begin(string, int)        {}
func (nopProgress) Item(int, string, string) {}
func (nopProgress) End()                     {}

// lineProgress prints one line per item, e.g. "007/120: IMG_0007.JPG => OK".
type lineProgress struct {
	out   io.Writer
	total int
	width int
}

func (p *lineProgress) Begin(title string, total int) {
	p.total = total
	p.width = len(strconv.Itoa(total))
	if title != "" {
		fmt.Fprintf(p.out, "\n%s: %d frames\n\n", title, total)
	}
}

func (p *lineProgress) Item(index int, path, status string) {
	if path == "" {
		fmt.Fprintf(p.out, "%0*d/%d: %s\n", p.width, index+1, p.total, status)
		return
	}
	fmt.Fprintf(p.out, "%0*d/%d: %s => %s\n", p.width, index+1, p.total, path, status)
}

func (p *lineProgress) End() {}

type barProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) Begin(title string, total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(title),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func (p *barProgress) Item(int, string, string) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *barProgress) End() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}

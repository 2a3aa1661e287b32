package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cedricshih/pit/pkg/param"
)

// Report summarizes a finished job.
type Report struct {
	Output string
	Size   param.Dim
	Bytes  int64

	// Video only.
	Rate   param.Rational
	Frames int
}

// Duration returns the play time of Frames at Rate.
func (r *Report) Duration() time.Duration {
	if !r.Rate.Valid() {
		return 0
	}
	ms := int64(r.Frames) * 1000 * int64(r.Rate.Den) / int64(r.Rate.Num)
	return time.Duration(ms) * time.Millisecond
}

// BitRate returns the average bit rate in bits per second.
func (r *Report) BitRate() float64 {
	if r.Frames == 0 || !r.Rate.Valid() {
		return 0
	}
	return float64(r.Bytes) * 8 / float64(r.Frames) * r.Rate.Float()
}

// FormatDuration renders d as hh:mm:ss.mmm.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// Print writes the summary in human readable form.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\nFinished: %s\n", r.Output)
	fmt.Fprintf(w, "Resolution: %s\n", r.Size)
	if r.Rate.Valid() {
		fmt.Fprintf(w, "Frame Rate: %.2f\n", r.Rate.Float())
		fmt.Fprintf(w, "Frames: %d\n", r.Frames)
		fmt.Fprintf(w, "Duration: %s\n", FormatDuration(r.Duration()))
	}
	fmt.Fprintf(w, "File Size: %d bytes / %s\n", r.Bytes, humanize.IBytes(uint64(r.Bytes)))
	if r.Rate.Valid() {
		fmt.Fprintf(w, "Average Bit Rate: %s\n", humanize.SIWithDigits(r.BitRate(), 2, "bps"))
	}
}

// Package param parses the small value grammars used on the command line:
// dimensions ("1920x1080"), rates ("24", "30000/1001") and ranges
// ("5%:99.5%", "1:120").
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrSyntax is returned for values that do not match the expected grammar.
var ErrSyntax = errors.New("invalid syntax")

// Dim is a width and height in pixels.
type Dim struct {
	Width  int
	Height int
}

func (d Dim) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ParseDim parses "<width>x<height>".
func ParseDim(s string) (Dim, error) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return Dim{}, errors.Wrapf(ErrSyntax, "dimension %q", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return Dim{}, errors.Wrapf(ErrSyntax, "width in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return Dim{}, errors.Wrapf(ErrSyntax, "height in %q", s)
	}
	return Dim{Width: w, Height: h}, nil
}

// Rational is a frame rate expressed as Num/Den frames per second.
type Rational struct {
	Num int
	Den int
}

func (r Rational) String() string {
	if r.Den == 1 {
		return strconv.Itoa(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Float returns the rate as a floating point value.
func (r Rational) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Frames converts a duration in seconds to a frame count, rounding down.
func (r Rational) Frames(seconds float64) int {
	return int(seconds * float64(r.Num) / float64(r.Den))
}

// ParseRational parses "<num>" or "<num>/<den>".
func ParseRational(s string) (Rational, error) {
	ns, ds, hasDen := strings.Cut(s, "/")
	num, err := strconv.Atoi(ns)
	if err != nil {
		return Rational{}, errors.Wrapf(ErrSyntax, "rate %q", s)
	}
	den := 1
	if hasDen {
		if den, err = strconv.Atoi(ds); err != nil {
			return Rational{}, errors.Wrapf(ErrSyntax, "rate %q", s)
		}
	}
	r := Rational{Num: num, Den: den}
	if !r.Valid() {
		return Rational{}, errors.Wrapf(ErrSyntax, "rate %q must be positive", s)
	}
	return r, nil
}

// Bound is one end of a Range. Percent marks values given with a trailing
// '%', to be resolved against a histogram.
type Bound struct {
	Value   float64
	Percent bool
}

func (b Bound) String() string {
	v := strconv.FormatFloat(b.Value, 'f', -1, 64)
	if b.Percent {
		return v + "%"
	}
	return v
}

// Range is a pair of bounds written "lo:hi".
type Range struct {
	Lo Bound
	Hi Bound
}

func (r Range) String() string {
	return r.Lo.String() + ":" + r.Hi.String()
}

// ParseRange parses "<lo>[%]:<hi>[%]". When both bounds share a unit lo
// must not exceed hi.
func ParseRange(s string) (Range, error) {
	los, his, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, errors.Wrapf(ErrSyntax, "range %q", s)
	}
	lo, err := ParseBound(los)
	if err != nil {
		return Range{}, err
	}
	hi, err := ParseBound(his)
	if err != nil {
		return Range{}, err
	}
	if lo.Percent == hi.Percent && lo.Value > hi.Value {
		return Range{}, errors.Wrapf(ErrSyntax, "range %q is reversed", s)
	}
	return Range{Lo: lo, Hi: hi}, nil
}

// ParseBound parses a single "<value>[%]".
func ParseBound(s string) (Bound, error) {
	v, pct := strings.CutSuffix(s, "%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Bound{}, errors.Wrapf(ErrSyntax, "value %q", s)
	}
	return Bound{Value: f, Percent: pct}, nil
}

// ParseIntRange parses "<begin>:<end>" with integer bounds, begin <= end.
func ParseIntRange(s string) (begin, end int, err error) {
	bs, es, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, errors.Wrapf(ErrSyntax, "range %q", s)
	}
	if begin, err = strconv.Atoi(bs); err != nil {
		return 0, 0, errors.Wrapf(ErrSyntax, "range %q", s)
	}
	if end, err = strconv.Atoi(es); err != nil {
		return 0, 0, errors.Wrapf(ErrSyntax, "range %q", s)
	}
	if begin > end {
		return 0, 0, errors.Wrapf(ErrSyntax, "range %q is reversed", s)
	}
	return begin, end, nil
}

// Package pipeline runs the jobs of the pit command: time-lapse videos,
// star-trail composites and contrast stretching.
package pipeline

import "github.com/pkg/errors"

var (
	// ErrInvalidFrame marks an input picture that is skipped: unreadable,
	// smaller than the output or of a different aspect ratio.
	ErrInvalidFrame = errors.New("invalid JPEG or aspect ratio")

	// ErrNoInput is returned when a job has no input file.
	ErrNoInput = errors.New("no input file")

	// ErrUsage marks invalid option combinations.
	ErrUsage = errors.New("invalid usage")
)

package config

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ParseLevel parses a logrus level name.
func ParseLevel(s string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return 0, errors.Wrap(err, "log_level")
	}
	return lvl, nil
}

// NewLogger returns a text logger writing to w. Each verbose step lowers the
// threshold by one level, down to trace.
func NewLogger(w io.Writer, level string, verbose int) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	lvl += logrus.Level(verbose)
	if lvl > logrus.TraceLevel {
		lvl = logrus.TraceLevel
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return log, nil
}

// Package filelist collects the input pictures of a job as a sorted,
// duplicate free set of regular files.
package filelist

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrExist is returned by Add for a path already in the set.
	ErrExist = errors.New("already listed")

	// ErrIsDir is returned by Add for directories.
	ErrIsDir = errors.New("is a directory")
)

// Set is an ordered set of file paths. Paths sort bytewise, so zero padded
// frame numbers come out in sequence.
type Set struct {
	paths map[string]struct{}
	log   logrus.FieldLogger
}

// New returns an empty set. log receives skipped entries and may be nil.
func New(log logrus.FieldLogger) *Set {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Set{paths: make(map[string]struct{}), log: log}
}

// Add inserts path after checking that it names an existing regular file.
// Stat failures are returned as is, so errors.Is(err, fs.ErrNotExist) holds
// for missing files.
func (s *Set) Add(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return errors.Wrap(ErrIsDir, path)
	}
	if _, ok := s.paths[path]; ok {
		return errors.Wrap(ErrExist, path)
	}
	s.paths[path] = struct{}{}
	return nil
}

// Len returns the number of paths in the set.
func (s *Set) Len() int {
	return len(s.paths)
}

// Paths returns the set in sorted order.
func (s *Set) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Filter decides whether a directory entry name is picked up by Scan.
type Filter func(name string) bool

// JPEG accepts *.jpg and *.jpeg in any case, except exclude.
func JPEG(exclude string) Filter {
	exclude = filepath.Base(exclude)
	return func(name string) bool {
		if name == exclude {
			return false
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".jpg", ".jpeg":
			return true
		}
		return false
	}
}

// Scan adds the entries of dir accepted by filter. Subdirectories are
// skipped. It returns the number of paths added.
func (s *Set) Scan(dir string, filter Filter) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "list %s", dir)
	}

	n := 0
	for _, ent := range entries {
		if filter != nil && !filter(ent.Name()) {
			continue
		}
		err := s.Add(filepath.Join(dir, ent.Name()))
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrIsDir), errors.Is(err, ErrExist):
			s.log.Debugf("skipping %s: %v", ent.Name(), err)
		default:
			return n, err
		}
	}
	return n, nil
}

// Expand adds fmt.Sprintf(tmpl, i) for every i in lo..hi. Missing files and
// duplicates are skipped. It returns the number of paths added.
func (s *Set) Expand(tmpl string, lo, hi int) (int, error) {
	if !strings.Contains(tmpl, "%") {
		return 0, errors.Errorf("template %q has no verb", tmpl)
	}

	n := 0
	for i := lo; i <= hi; i++ {
		path := fmt.Sprintf(tmpl, i)
		err := s.Add(path)
		switch {
		case err == nil:
			n++
		case errors.Is(err, fs.ErrNotExist):
			s.log.Infof("no such file: %s", path)
		case errors.Is(err, ErrExist):
			s.log.Infof("exists: %s", path)
		default:
			return n, err
		}
	}
	return n, nil
}

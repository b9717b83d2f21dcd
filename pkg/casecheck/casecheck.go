// Package casecheck rejects import paths whose case differs from the file
// on disk. Case-insensitive filesystems resolve such paths fine, so the
// mistake only surfaces later on a case-sensitive machine.
package casecheck

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
)

// Checker verifies path case against directory listings. Listings are
// cached until Reset.
type Checker struct {
	fs   filesystem.FS
	root string

	mu      sync.Mutex
	listing map[string]*listing
}

type listing struct {
	exact  map[string]bool
	folded map[string]string
}

func (l *listing) lookup(name string) (string, bool) {
	if l.exact[name] {
		return name, true
	}
	onDisk, ok := l.folded[strings.ToLower(name)]
	return onDisk, ok
}

// New returns a Checker for paths below root. Components above root are
// not checked.
func New(fsys filesystem.FS, root string) *Checker {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	return &Checker{
		fs:      fsys,
		root:    filepath.Clean(root),
		listing: make(map[string]*listing),
	}
}

// Verify checks every component of p below the root. A mismatch returns a
// CASE_MISMATCH error whose "actual" detail holds the on-disk spelling.
func (c *Checker) Verify(p string) error {
	abs := filepath.Clean(p)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(c.root, abs)
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}

	dir := c.root
	actual := make([]string, 0, 4)
	mismatch := false
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		l, err := c.list(dir)
		if err != nil {
			return err
		}
		onDisk, ok := l.lookup(part)
		if !ok {
			return errors.Newf(errors.ErrFileNotFound, "%s does not exist", filepath.Join(dir, part)).
				WithDetail("path", p)
		}
		if onDisk != part {
			mismatch = true
		}
		actual = append(actual, onDisk)
		dir = filepath.Join(dir, onDisk)
	}

	if mismatch {
		spelled := filepath.ToSlash(filepath.Join(actual...))
		return errors.Newf(errors.ErrCaseMismatch, "%s does not match the case of %s on disk",
			filepath.ToSlash(rel), spelled).
			WithDetail("path", p).
			WithDetail("actual", spelled)
	}
	return nil
}

// Reset drops cached listings. Call it when files are added or renamed.
func (c *Checker) Reset() {
	c.mu.Lock()
	c.listing = make(map[string]*listing)
	c.mu.Unlock()
}

func (c *Checker) list(dir string) (*listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.listing[dir]; ok {
		return l, nil
	}
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "%s does not exist", dir)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", dir)
	}
	l := &listing{
		exact:  make(map[string]bool, len(entries)),
		folded: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		l.exact[e.Name()] = true
		lower := strings.ToLower(e.Name())
		if existing, ok := l.folded[lower]; !ok || e.Name() < existing {
			l.folded[lower] = e.Name()
		}
	}
	c.listing[dir] = l
	return l, nil
}

// Verify checks an absolute or working-directory relative path against the
// host filesystem.
func Verify(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", p)
	}
	return New(nil, filepath.VolumeName(abs)+string(filepath.Separator)).Verify(abs)
}

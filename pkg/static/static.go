// Package static copies passthrough assets, such as the public directory,
// into the output directory unchanged.
package static

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
	"github.com/arthur-debert/bundl/pkg/logging"
)

// Copier copies a directory tree, skipping ignored files.
type Copier struct {
	fs     filesystem.FS
	ignore []ignorePattern
}

type ignorePattern struct {
	source string
	full   bool
	glob   glob.Glob
}

// NewCopier compiles the ignore globs. Globs without a slash match base
// names, others match the slash-separated path relative to the source.
func NewCopier(fsys filesystem.FS, ignore []string) (*Copier, error) {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	c := &Copier{fs: fsys}
	for _, src := range ignore {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPatternInvalid, "invalid ignore pattern %q", src).
				WithDetail("pattern", src)
		}
		c.ignore = append(c.ignore, ignorePattern{source: src, full: strings.Contains(src, "/"), glob: g})
	}
	return c, nil
}

// Copy copies from into to and returns the number of files written. A
// missing source directory copies nothing.
func (c *Copier) Copy(from, to string) (int, error) {
	logger := logging.GetLogger("static")

	if _, err := c.fs.Stat(from); err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("from", from).Msg("Static directory missing, nothing to copy")
			return 0, nil
		}
		return 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", from)
	}

	copied := 0
	err := filesystem.Walk(c.fs, from, func(rel string, entry fs.DirEntry) error {
		if c.ignored(rel) {
			logger.Trace().Str("file", rel).Msg("Ignored")
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		src := filepath.Join(from, filepath.FromSlash(rel))
		dst := filepath.Join(to, filepath.FromSlash(rel))
		data, err := c.fs.ReadFile(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", src)
		}
		if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(dst))
		}
		if err := c.fs.WriteFile(dst, data, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", dst)
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, err
	}

	logger.Debug().Str("from", from).Str("to", to).Int("files", copied).Msg("Copied static files")
	return copied, nil
}

func (c *Copier) ignored(rel string) bool {
	base := path.Base(rel)
	for _, p := range c.ignore {
		if p.full && p.glob.Match(rel) {
			return true
		}
		if !p.full && p.glob.Match(base) {
			return true
		}
	}
	return false
}

// Copy copies from into to on the host filesystem.
func Copy(from, to string, ignore []string) (int, error) {
	c, err := NewCopier(nil, ignore)
	if err != nil {
		return 0, err
	}
	return c.Copy(from, to)
}

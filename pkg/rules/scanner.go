package rules

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
)

// DefaultSkipDirs are directory names the scanner does not descend into.
var DefaultSkipDirs = []string{"node_modules", ".git"}

// Match is the dispatch outcome for one scanned file.
type Match struct {
	Path      string // Path relative to the scan root
	Selection Selection
	Err       error
}

// Scanner walks a source tree and dispatches every file, so unhandled file
// types surface before the bundling engine reaches them. Hidden files and
// directories are never dispatched.
type Scanner struct {
	rules     *Ruleset
	fsys      fs.FS
	skipDirs  map[string]bool
	skipPaths map[string]bool
	rootFiles map[string]bool
	logger    zerolog.Logger
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner(rules *Ruleset) *Scanner {
	return NewScannerWithFS(rules, nil)
}

// NewScannerWithFS creates a scanner over the given filesystem. A nil fsys
// reads the OS filesystem.
func NewScannerWithFS(rules *Ruleset, fsys fs.FS) *Scanner {
	skip := make(map[string]bool, len(DefaultSkipDirs))
	for _, d := range DefaultSkipDirs {
		skip[d] = true
	}
	return &Scanner{
		rules:     rules,
		fsys:      fsys,
		skipDirs:  skip,
		skipPaths: make(map[string]bool),
		logger:    logging.GetLogger("rules.scanner"),
	}
}

// Skip excludes paths relative to the scan root. A skipped directory is
// skipped with everything below it. Empty paths and paths leaving the root
// are ignored.
func (s *Scanner) Skip(paths ...string) *Scanner {
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if p == "." || p == ".." || strings.HasPrefix(p, "../") || path.IsAbs(p) {
			continue
		}
		s.skipPaths[p] = true
	}
	return s
}

// RootFiles limits the files dispatched directly under the scan root to
// names. Project metadata such as package.json lives there, next to the
// entry files. Subdirectories are scanned in full.
func (s *Scanner) RootFiles(names ...string) *Scanner {
	s.rootFiles = make(map[string]bool, len(names))
	for _, n := range names {
		s.rootFiles[path.Clean(filepath.ToSlash(n))] = true
	}
	return s
}

// Scan dispatches every regular file under root.
func (s *Scanner) Scan(root string) ([]Match, error) {
	fsys := s.fsys
	base := "."
	if fsys == nil {
		fsys = os.DirFS(root)
	} else {
		base = root
	}

	s.logger.Debug().Str("root", root).Msg("Scanning source tree")

	var matches []Match
	err := fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == base {
			return nil
		}

		rel := p
		if base != "." {
			if r, err := filepath.Rel(base, p); err == nil {
				rel = filepath.ToSlash(r)
			}
		}

		if d.IsDir() {
			if s.skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || s.skipPaths[rel] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") || s.skipPaths[rel] {
			return nil
		}
		if s.rootFiles != nil && !strings.Contains(rel, "/") && !s.rootFiles[rel] {
			return nil
		}

		sel, dispatchErr := s.rules.Dispatch(rel)
		matches = append(matches, Match{Path: rel, Selection: sel, Err: dispatchErr})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to scan %s", root)
	}

	s.logger.Debug().
		Str("root", root).
		Int("files", len(matches)).
		Msg("Scan complete")

	return matches, nil
}

// Unhandled returns the matches that no rule claimed.
func Unhandled(matches []Match) []Match {
	var out []Match
	for _, m := range matches {
		if m.Err != nil {
			out = append(out, m)
		}
	}
	return out
}

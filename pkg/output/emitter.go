package output

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// Emitter receives files produced by pipeline steps.
type Emitter interface {
	Emit(name string, data []byte) error
}

// DirEmitter writes emitted files below Root.
type DirEmitter struct {
	Root string

	mu      sync.Mutex
	emitted []string
	seen    map[string]bool
}

// NewDirEmitter returns an emitter rooted at dir.
func NewDirEmitter(dir string) *DirEmitter {
	return &DirEmitter{Root: dir}
}

// Emit writes data to Root/name, creating directories as needed.
func (e *DirEmitter) Emit(name string, data []byte) error {
	target, err := safeJoin(e.Root, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(target))
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}

	e.mu.Lock()
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if !e.seen[name] {
		e.seen[name] = true
		e.emitted = append(e.emitted, filepath.ToSlash(name))
	}
	e.mu.Unlock()
	return nil
}

// Emitted returns the names written so far, sorted.
func (e *DirEmitter) Emitted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]string(nil), e.emitted...)
	sort.Strings(out)
	return out
}

// MemoryEmitter keeps emitted files in memory.
type MemoryEmitter struct {
	mu    sync.Mutex
	Files map[string][]byte
}

// NewMemoryEmitter returns an empty in-memory emitter.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{Files: make(map[string][]byte)}
}

// Emit stores a copy of data under name.
func (e *MemoryEmitter) Emit(name string, data []byte) error {
	if _, err := safeJoin("/", name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Files[filepath.ToSlash(name)] = append([]byte(nil), data...)
	return nil
}

func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrFileWrite, "refusing to emit %q outside the output directory", name).
			WithDetail("name", name)
	}
	return filepath.Join(root, clean), nil
}

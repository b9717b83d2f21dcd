package filesystem

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// FS is the set of filesystem operations bundl needs outside the bundling
// engine.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// WalkFunc is called for every file below the walk root. rel is slash
// separated and relative to the root.
type WalkFunc func(rel string, entry fs.DirEntry) error

// Walk visits regular files below root in lexical order. Returning
// filepath.SkipDir from fn for a directory skips it.
func Walk(fsys FS, root string, fn WalkFunc) error {
	return walk(fsys, root, "", fn)
}

func walk(fsys FS, root, rel string, fn WalkFunc) error {
	entries, err := fsys.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		child := entry.Name()
		if rel != "" {
			child = rel + "/" + entry.Name()
		}
		err := fn(child, entry)
		if entry.IsDir() {
			if err == filepath.SkipDir {
				continue
			}
			if err != nil {
				return err
			}
			if err := walk(fsys, root, child, fn); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

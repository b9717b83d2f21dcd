package filesystem_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/filesystem"
)

func populate(t *testing.T, fsys filesystem.FS, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, fsys.WriteFile(p, []byte(content), 0644))
	}
}

func TestImplementations(t *testing.T) {
	impls := map[string]struct {
		fsys filesystem.FS
		root string
	}{
		"os":     {filesystem.NewOS(), t.TempDir()},
		"memory": {filesystem.NewMemory(), "/work"},
	}

	for name, impl := range impls {
		t.Run(name, func(t *testing.T) {
			populate(t, impl.fsys, impl.root, map[string]string{
				"index.html":      "<html>",
				"img/a.png":       "a",
				"img/deep/b.png":  "b",
				"skip/ignored.js": "x",
			})

			data, err := impl.fsys.ReadFile(filepath.Join(impl.root, "img", "a.png"))
			require.NoError(t, err)
			assert.Equal(t, "a", string(data))

			_, err = impl.fsys.ReadFile(filepath.Join(impl.root, "img"))
			assert.Error(t, err)

			_, err = impl.fsys.Stat(filepath.Join(impl.root, "missing"))
			assert.True(t, os.IsNotExist(err))

			var seen []string
			err = filesystem.Walk(impl.fsys, impl.root, func(rel string, entry fs.DirEntry) error {
				if entry.IsDir() && entry.Name() == "skip" {
					return filepath.SkipDir
				}
				if !entry.IsDir() {
					seen = append(seen, rel)
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"img/a.png", "img/deep/b.png", "index.html"}, seen)
		})
	}
}

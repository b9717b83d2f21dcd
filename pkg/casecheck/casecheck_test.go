package casecheck_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/casecheck"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
)

func project(t *testing.T) filesystem.FS {
	t.Helper()
	fsys := filesystem.NewMemory()
	for _, p := range []string{"/app/src/App.js", "/app/src/components/Button.jsx", "/app/src/img/Logo.svg"} {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, fsys.WriteFile(p, []byte("x"), 0644))
	}
	return fsys
}

func TestVerify(t *testing.T) {
	c := casecheck.New(project(t), "/app")

	assert.NoError(t, c.Verify("/app/src/App.js"))
	assert.NoError(t, c.Verify("src/components/Button.jsx"))
	assert.NoError(t, c.Verify("/elsewhere/anything.js"))
}

func TestVerify_Mismatch(t *testing.T) {
	c := casecheck.New(project(t), "/app")

	tests := []struct {
		path   string
		actual string
	}{
		{"/app/src/app.js", "src/App.js"},
		{"/app/src/Components/Button.jsx", "src/components/Button.jsx"},
		{"src/img/logo.SVG", "src/img/Logo.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := c.Verify(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrCaseMismatch))
			assert.Equal(t, tt.actual, errors.GetErrorDetails(err)["actual"])
		})
	}
}

func TestVerify_Missing(t *testing.T) {
	c := casecheck.New(project(t), "/app")
	err := c.Verify("/app/src/Missing.js")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
}

func TestReset(t *testing.T) {
	fsys := project(t)
	c := casecheck.New(fsys, "/app")
	assert.True(t, errors.IsErrorCode(c.Verify("/app/src/New.js"), errors.ErrFileNotFound))

	require.NoError(t, fsys.WriteFile("/app/src/New.js", []byte("x"), 0644))
	assert.True(t, errors.IsErrorCode(c.Verify("/app/src/New.js"), errors.ErrFileNotFound), "listing is cached")

	c.Reset()
	assert.NoError(t, c.Verify("/app/src/New.js"))
}

func TestVerify_HostFilesystem(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Main.js")
	require.NoError(t, filesystem.NewOS().WriteFile(p, []byte("x"), 0644))

	assert.NoError(t, casecheck.Verify(p))
	err := casecheck.Verify(filepath.Join(dir, "main.js"))
	assert.Error(t, err)
}

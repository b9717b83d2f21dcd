package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/filesystem"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// memoryRoot is the project root of in-memory projects.
const memoryRoot = "/project"

// Project is a throwaway project directory.
type Project struct {
	Root string
	FS   filesystem.FS
	Type EnvType

	t *testing.T
}

// NewProject creates an empty project. Isolated projects also point the
// XDG config and state directories at temp dirs, so no user config or log
// file leaks into the test.
func NewProject(t *testing.T, envType EnvType) *Project {
	t.Helper()
	p := &Project{Type: envType, t: t}
	switch envType {
	case EnvMemoryOnly:
		p.Root = memoryRoot
		p.FS = filesystem.NewMemory()
		require.NoError(t, p.FS.MkdirAll(p.Root, 0755))
	case EnvIsolated:
		p.Root = t.TempDir()
		p.FS = filesystem.NewOS()
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("XDG_STATE_HOME", t.TempDir())
	}
	return p
}

// Path joins slash separated name to the project root.
func (p *Project) Path(name string) string {
	return filepath.Join(p.Root, filepath.FromSlash(name))
}

// Write creates files, keyed by slash separated path, with their parents.
func (p *Project) Write(files map[string]string) *Project {
	p.t.Helper()
	for name, content := range files {
		path := p.Path(name)
		require.NoError(p.t, p.FS.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(p.t, p.FS.WriteFile(path, []byte(content), 0644))
	}
	return p
}

// Read returns the contents of a project file.
func (p *Project) Read(name string) string {
	p.t.Helper()
	data, err := p.FS.ReadFile(p.Path(name))
	require.NoError(p.t, err)
	return string(data)
}

// Exists reports whether a project file exists.
func (p *Project) Exists(name string) bool {
	_, err := p.FS.Stat(p.Path(name))
	return err == nil
}

// Config returns the default configuration with the project as context and
// source maps disabled.
func (p *Project) Config() *config.Config {
	p.t.Helper()
	cfg, err := config.Defaults()
	require.NoError(p.t, err)
	cfg.Context = p.Root
	cfg.Devtool = "none"
	return cfg
}

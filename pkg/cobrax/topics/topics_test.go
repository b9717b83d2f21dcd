package topics

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"topics/rules.md":       {Data: []byte("# Rules\n\nFirst match wins.")},
		"topics/option-mode.md": {Data: []byte("Mode selects the build profile.")},
		"topics/notes.txt":      {Data: []byte("plain notes")},
		"topics/ignored.json":   {Data: []byte("{}")},
	}
}

func TestLoad(t *testing.T) {
	tm, err := Load(testFS(), "topics", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "option-mode", "rules"}, tm.List())

	topic, ok := tm.Get("rules")
	require.True(t, ok)
	assert.Equal(t, "# Rules\n\nFirst match wins.", topic.Content)

	topic, ok = tm.Get("--mode")
	require.True(t, ok)
	assert.Equal(t, "option-mode", topic.Name)

	_, ok = tm.Get("ignored")
	assert.False(t, ok)
}

func TestLoad_CustomExtensionsAndMissingRoot(t *testing.T) {
	tm, err := Load(testFS(), "topics", Options{Extensions: []string{".json"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ignored"}, tm.List())

	tm, err = Load(testFS(), "nope", Options{})
	require.NoError(t, err)
	assert.Empty(t, tm.List())
}

func TestMarkdownRenderer_PlainFormatPassesThrough(t *testing.T) {
	r := MarkdownRenderer{}
	assert.Equal(t, "# x", r.Render("# x", ".md"))
	assert.Equal(t, "# x", r.Render("# x", ".txt"))
}

func newRoot(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	root := &cobra.Command{Use: "bundl"}
	root.AddCommand(&cobra.Command{Use: "build", Short: "Build the project", Run: func(*cobra.Command, []string) {}})

	tm, err := Load(testFS(), "topics", Options{})
	require.NoError(t, err)
	Install(root, tm)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	return root, &out
}

func TestInstall_Topic(t *testing.T) {
	root, out := newRoot(t)
	root.SetArgs([]string{"help", "rules"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "# Rules\n\nFirst match wins.", out.String())
}

func TestInstall_TopicList(t *testing.T) {
	root, out := newRoot(t)
	root.SetArgs([]string{"help", "topics"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "General topics:\n  notes\n  rules\n")
	assert.Contains(t, out.String(), "Option topics:\n  --mode\n")
	assert.Contains(t, out.String(), "Use 'bundl help <topic>'")
}

func TestInstall_FallsBackToCommandHelp(t *testing.T) {
	root, out := newRoot(t)
	root.SetArgs([]string{"help", "build"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Build the project")
}

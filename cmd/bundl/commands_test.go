package bundl

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/testutil"
)

// run executes the root command. Tests isolate config layers through
// testutil.NewProject before calling it.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd := NewRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "never"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func emptyProject(t *testing.T) string {
	t.Helper()
	return testutil.NewProject(t, testutil.EnvIsolated).Root
}

func TestRootCmd_NoCommand(t *testing.T) {
	_, err := run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bundl version dev")
}

func TestDispatchCmd_Paths(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "dispatch", "src/App.module.css", "src/main.js", "src/icon.png?v=2")
	require.NoError(t, err)

	assert.Contains(t, out, "src/App.module.css  css-modules  style-loader!css-loader")
	assert.Contains(t, out, "src/main.js  scripts  babel-loader")
	assert.Contains(t, out, "src/icon.png?v=2  images  url-loader")
}

func TestDispatchCmd_UnhandledPath(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "dispatch", "notes.xyz")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnhandledFileType))
	assert.Contains(t, out, "notes.xyz  unhandled")
}

func TestDispatchCmd_Scan(t *testing.T) {
	project := testutil.NewProject(t, testutil.EnvIsolated).Write(map[string]string{
		"src/main.js":          "",
		"src/style.css":        "",
		"src/data.xyz":         "",
		"src/.eslintrc":        "",
		"node_modules/x/a.xyz": "",
		"public/index.html":    "<html></html>",
		"public/robots.txt":    "",
		"dist/index.html":      "<html></html>",
		"package.json":         "{}",
		"bundl.toml":           "",
		".env":                 "",
	})

	out, err := run(t, "-C", project.Root, "dispatch")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Contains(t, out, "src/data.xyz  unhandled")
	for _, skipped := range []string{"node_modules", "public/", "dist/", "package.json", "bundl.toml", ".env", ".eslintrc"} {
		assert.NotContains(t, out, skipped)
	}
	assert.Contains(t, out, "1 file(s) are not handled by any rule")
}

func TestDispatchCmd_ScanCleanProject(t *testing.T) {
	project := testutil.NewProject(t, testutil.EnvIsolated).Write(map[string]string{
		"src/main.js":       "",
		"src/style.css":     "",
		"public/index.html": "<html></html>",
		"dist/index.html":   "<html></html>",
		"package.json":      "{}",
	})

	out, err := run(t, "-C", project.Root, "dispatch")
	require.NoError(t, err)
	assert.Contains(t, out, "All 2 file(s) are handled.")
}

func TestRulesCmd_Table(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "Dispatch mode: **first-match**")
	assert.Contains(t, out, "| 3 | css-modules |")
	assert.Contains(t, out, `\.(js\|mjs\|jsx\|ts\|tsx)$`)
}

func TestRulesCmd_JSON(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "rules", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Rules []struct {
			Name string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Rules, 10)
	assert.Equal(t, "scripts", doc.Rules[0].Name)
}

func TestRulesCheckCmd(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "rules", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No conflicts")
}

func TestRulesCheckCmd_Strict(t *testing.T) {
	project := testutil.NewProject(t, testutil.EnvIsolated).Write(map[string]string{
		"bundl.toml": `
[[extra_rules]]
name = "everything"
test = '/.*/'
use = ["file-loader"]
examples = ["src/blob.bin"]
`,
	})

	out, err := run(t, "-C", project.Root, "rules", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "is dispatched to everything")

	_, err = run(t, "-C", project.Root, "rules", "check", "--strict")
	require.Error(t, err)
	assert.Equal(t, errors.ErrConfigValid, errors.GetErrorCode(err))
}

func TestConfigCmd(t *testing.T) {
	out, err := run(t, "-C", emptyProject(t), "--mode", "production", "config", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: production")
	assert.Contains(t, out, "dispatch: first-match")
}

func TestBuildCmd(t *testing.T) {
	project := testutil.NewProject(t, testutil.EnvIsolated).Write(map[string]string{
		"src/main.js":       `import "./style.css"; console.log("hello");`,
		"src/style.css":     "body { margin: 0; }",
		"public/index.html": "<!DOCTYPE html><html><head></head><body></body></html>",
	})
	metricsFile := filepath.Join(t.TempDir(), "bundl.prom")

	out, err := run(t, "-C", project.Root, "build", "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.True(t, project.Exists("dist/index.js"))
	assert.Contains(t, out, "index.js")
	assert.Contains(t, out, "index.css")
	assert.Contains(t, out, "index.html")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `bundl_build_outcomes_total{outcome="success"} 1`)
}

func TestBuildCmd_Failure(t *testing.T) {
	project := testutil.NewProject(t, testutil.EnvIsolated).Write(map[string]string{
		"src/main.js":  `import "./notes.xyz";`,
		"src/notes.xyz": "",
	})

	_, err := run(t, "-C", project.Root, "build")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnhandledFileType))
}

func TestHelpTopics(t *testing.T) {
	out, err := run(t, "help", "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "rules")
	assert.Contains(t, out, "loaders")
	assert.Contains(t, out, "--mode")

	out, err = run(t, "help", "loaders")
	require.NoError(t, err)
	assert.Contains(t, out, "url-loader")

	out, err = run(t, "help", "option-mode")
	require.NoError(t, err)
	assert.Contains(t, out, "production")
}

func TestWriteCompletion(t *testing.T) {
	root := NewRootCmd()
	for _, shell := range Shells {
		var buf bytes.Buffer
		require.NoError(t, WriteCompletion(root, shell, &buf), shell)
		assert.Contains(t, buf.String(), "bundl", shell)
	}

	err := WriteCompletion(root, "tcsh", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shell")
}

func TestHelp_PlainWhenColorNever(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "USAGE:")
	assert.NotContains(t, out, "\x1b[")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", humanBytes(512))
	assert.Equal(t, "1.50 KiB", humanBytes(1536))
	assert.Equal(t, "2.00 MiB", humanBytes(2<<20))
}

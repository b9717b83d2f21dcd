package bundler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/config"
)

func TestSourceMap(t *testing.T) {
	tests := []struct {
		devtool string
		want    api.SourceMap
	}{
		{"", api.SourceMapNone},
		{"false", api.SourceMapNone},
		{"none", api.SourceMapNone},
		{"cheap-module-eval-source-map", api.SourceMapInline},
		{"inline-source-map", api.SourceMapInline},
		{"hidden-source-map", api.SourceMapExternal},
		{"nosources-source-map", api.SourceMapExternal},
		{"source-map", api.SourceMapLinked},
	}
	for _, tt := range tests {
		t.Run(tt.devtool, func(t *testing.T) {
			assert.Equal(t, tt.want, sourceMap(tt.devtool))
		})
	}
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, api.FormatIIFE, outputFormat("iife"))
	assert.Equal(t, api.FormatESModule, outputFormat("esm"))
	assert.Equal(t, api.FormatCommonJS, outputFormat("cjs"))
}

func TestResolveExtensions(t *testing.T) {
	assert.Equal(t, []string{".js", ".jsx"}, resolveExtensions([]string{"*", ".js", "", ".jsx"}))
}

func TestEnvValues(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("APP_KEY=from-file\nAPP_SHARED=file\nSECRET=hidden\n"), 0644))
	t.Setenv("APP_SHARED", "process")

	cfg := &config.Config{
		Mode:    "production",
		Context: root,
		Output:  config.Output{PublicPath: "/static/"},
		HTML:    config.HTML{Env: map[string]string{"NODE_ENV": "development", "TITLE": "Demo"}},
		Env:     config.Env{Files: []string{".env", ".env.local"}, Prefix: "APP_"},
	}

	values, err := EnvValues(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-file", values["APP_KEY"])
	assert.Equal(t, "process", values["APP_SHARED"])
	assert.Equal(t, "production", values["NODE_ENV"])
	assert.Equal(t, "/static/", values["BASE_URL"])
	assert.Equal(t, "Demo", values["TITLE"])
	assert.NotContains(t, values, "SECRET")

	defines := Defines(values)
	assert.Equal(t, `"from-file"`, defines["process.env.APP_KEY"])
	assert.Equal(t, `"production"`, defines["process.env.NODE_ENV"])
}

func TestEnvValues_ModeNone(t *testing.T) {
	cfg := &config.Config{Mode: "none", Context: t.TempDir()}
	values, err := EnvValues(cfg)
	require.NoError(t, err)
	assert.NotContains(t, values, "NODE_ENV")
	assert.Contains(t, values, "BASE_URL")
}

func TestEntryPoints(t *testing.T) {
	b := &Bundler{cfg: &config.Config{Entry: map[string][]string{
		"vendor": {"./a.js", "./b.js"},
		"index":  {"./src/main.js"},
	}}}

	assert.Equal(t, []api.EntryPoint{
		{InputPath: "./src/main.js", OutputPath: "index"},
		{InputPath: entryNamespace + ":vendor", OutputPath: "vendor"},
	}, b.entryPoints())
}

func TestURLHelpers(t *testing.T) {
	for _, ref := range []string{"data:image/png;base64,AA", "https://cdn/x.png", "//cdn/x.png", "/abs.png", "#filter"} {
		assert.True(t, isExternalURL(ref), ref)
	}
	assert.False(t, isExternalURL("./logo.svg"))
	assert.False(t, isExternalURL("logo.svg"))

	p, suffix := splitSuffix("font.eot?#iefix")
	assert.Equal(t, "font.eot", p)
	assert.Equal(t, "?#iefix", suffix)
}

func TestMetafile(t *testing.T) {
	meta, err := parseMetafile(`{"outputs": {
		"dist/index.js": {"entryPoint": "src/main.js", "cssBundle": "dist/index.css", "bytes": 10},
		"dist/index.css": {"bytes": 4},
		"dist/chunk.ab12.js": {"bytes": 3},
		"dist/index.js.map": {"bytes": 7},
		"dist/admin.js": {"entryPoint": "src/admin.js", "bytes": 5}
	}}`)
	require.NoError(t, err)

	scripts, styles := meta.entryOutputs()
	assert.Equal(t, []string{"dist/admin.js", "dist/index.js"}, scripts)
	assert.Equal(t, []string{"dist/index.css"}, styles)

	assert.Equal(t, "js", outputKind("dist/chunk.ab12.js"))
	assert.Equal(t, "css", outputKind("dist/index.css"))
	assert.Equal(t, "map", outputKind("dist/index.js.map"))
	assert.Equal(t, "asset", outputKind("dist/img/logo.svg"))

	empty, err := parseMetafile("")
	require.NoError(t, err)
	assert.Empty(t, empty.Outputs)
}

package bundler

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/joho/godotenv"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/output"
)

const entryNamespace = "bundl-entry"

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}

// sourceMap maps a webpack devtool name to an esbuild source map mode.
// eval and inline variants embed the map, hidden and nosources variants
// write it without a reference, anything else links it.
func sourceMap(devtool string) api.SourceMap {
	d := strings.ToLower(strings.TrimSpace(devtool))
	switch {
	case d == "" || d == "false" || d == "none":
		return api.SourceMapNone
	case strings.Contains(d, "eval") || strings.Contains(d, "inline"):
		return api.SourceMapInline
	case strings.HasPrefix(d, "hidden") || strings.HasPrefix(d, "nosources"):
		return api.SourceMapExternal
	}
	return api.SourceMapLinked
}

func outputFormat(f string) api.Format {
	switch f {
	case "esm":
		return api.FormatESModule
	case "cjs":
		return api.FormatCommonJS
	}
	return api.FormatIIFE
}

// resolveExtensions drops webpack's "*" entry, which means "as written" and
// is implicit in esbuild.
func resolveExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		if e == "*" || e == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EnvValues returns the environment exposed to the bundle and the HTML
// template: NODE_ENV, BASE_URL, the HTML env table and every variable
// starting with the env prefix. Prefixed variables are read from the dotenv
// files in order, then from the process environment, which wins.
func EnvValues(cfg *config.Config) (map[string]string, error) {
	values := make(map[string]string)

	for _, f := range cfg.Env.Files {
		vars, err := godotenv.Read(cfg.Abs(f))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "cannot read env file %s", f).
				WithDetail("file", f)
		}
		for k, v := range vars {
			if cfg.Env.Prefix != "" && strings.HasPrefix(k, cfg.Env.Prefix) {
				values[k] = v
			}
		}
	}
	if cfg.Env.Prefix != "" {
		for _, kv := range os.Environ() {
			k, v, _ := strings.Cut(kv, "=")
			if strings.HasPrefix(k, cfg.Env.Prefix) {
				values[k] = v
			}
		}
	}

	for k, v := range cfg.HTML.Env {
		values[k] = v
	}
	values["BASE_URL"] = cfg.Output.PublicPath
	if cfg.Mode != "none" {
		values["NODE_ENV"] = cfg.Mode
	}
	return values, nil
}

// Defines turns env values into process.env.* constants for esbuild.
func Defines(values map[string]string) map[string]string {
	defines := make(map[string]string, len(values))
	for k, v := range values {
		quoted, _ := json.Marshal(v)
		defines["process.env."+k] = string(quoted)
	}
	return defines
}

func (b *Bundler) entryPoints() []api.EntryPoint {
	names := make([]string, 0, len(b.cfg.Entry))
	for name := range b.cfg.Entry {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		files := b.cfg.Entry[name]
		if len(files) == 1 {
			entries = append(entries, api.EntryPoint{InputPath: files[0], OutputPath: name})
			continue
		}
		entries = append(entries, api.EntryPoint{InputPath: entryNamespace + ":" + name, OutputPath: name})
	}
	return entries
}

func (b *Bundler) buildOptions() (api.BuildOptions, error) {
	entryNames, err := output.EntryNames(b.spec.Filename)
	if err != nil {
		return api.BuildOptions{}, err
	}
	opts := api.BuildOptions{
		EntryPointsAdvanced: b.entryPoints(),
		AbsWorkingDir:       b.cfg.Context,
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Outdir:              b.spec.Directory,
		EntryNames:          entryNames,
		PublicPath:          b.spec.PublicPath,
		Platform:            api.PlatformBrowser,
		Format:              outputFormat(b.cfg.Output.Format),
		Splitting:           b.cfg.Output.Format == "esm",
		Sourcemap:           sourceMap(b.cfg.Devtool),
		MinifyWhitespace:    b.cfg.IsProduction(),
		MinifyIdentifiers:   b.cfg.IsProduction(),
		MinifySyntax:        b.cfg.IsProduction(),
		TreeShaking:         api.TreeShakingTrue,
		LegalComments:       cond(b.cfg.IsProduction(), api.LegalCommentsEndOfFile, api.LegalCommentsInline),
		JSX:                 api.JSXAutomatic,
		Define:              Defines(b.env),
		ResolveExtensions:   resolveExtensions(b.cfg.Resolve.Extensions),
		LogLevel:            api.LogLevelSilent,
		Plugins:             []api.Plugin{b.plugin()},
	}
	if b.spec.ChunkFilename != "" {
		if opts.ChunkNames, err = output.EntryNames(b.spec.ChunkFilename); err != nil {
			return api.BuildOptions{}, err
		}
	}
	if b.spec.AssetFilename != "" {
		if opts.AssetNames, err = output.EntryNames(b.spec.AssetFilename); err != nil {
			return api.BuildOptions{}, err
		}
	}
	return opts, nil
}

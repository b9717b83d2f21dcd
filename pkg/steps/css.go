package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/arthur-debert/bundl/pkg/rules"
)

// css turns the artifact into a stylesheet module. With modules=true class
// names are scoped to the file.
func css(_ context.Context, _ *Runner, opts rules.Options, a *Artifact) error {
	if opts.GetBool("modules", false) {
		a.Loader = api.LoaderLocalCSS
	} else {
		a.Loader = api.LoaderCSS
	}
	return nil
}

// style marks stylesheet output for injection into the HTML entry.
func style(_ context.Context, _ *Runner, _ rules.Options, a *Artifact) error {
	if !a.IsCSS() {
		return fmt.Errorf("expected css, got %s; put css-loader after style-loader", loaderName(a.Loader))
	}
	a.Inject = true
	a.SideEffects = true
	return nil
}

// postcss lowers modern CSS for the configured browsers.
func postcss(_ context.Context, _ *Runner, opts rules.Options, a *Artifact) error {
	engines, err := parseEngines(opts.GetStrings("browsers"))
	if err != nil {
		return err
	}

	result := api.Transform(string(a.Contents), api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    engines,
		Sourcefile: a.Path,
	})
	if len(result.Errors) > 0 {
		return messagesError(result.Errors)
	}
	a.Contents = result.Code
	return nil
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// parseEngines reads targets written as "chrome58" or "safari 11.1".
func parseEngines(targets []string) ([]api.Engine, error) {
	engines := make([]api.Engine, 0, len(targets))
	for _, target := range targets {
		t := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(target), " ", ""))
		i := strings.IndexAny(t, "0123456789")
		if i <= 0 {
			return nil, fmt.Errorf("invalid browser target %q", target)
		}
		name, ok := engineNames[t[:i]]
		if !ok {
			return nil, fmt.Errorf("unsupported browser %q", t[:i])
		}
		engines = append(engines, api.Engine{Name: name, Version: t[i:]})
	}
	return engines, nil
}

func messagesError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
		} else {
			lines = append(lines, m.Text)
		}
	}
	return fmt.Errorf("%s", strings.Join(lines, "; "))
}

func loaderName(l api.Loader) string {
	switch l {
	case api.LoaderJS:
		return "js"
	case api.LoaderJSX:
		return "jsx"
	case api.LoaderTS:
		return "ts"
	case api.LoaderTSX:
		return "tsx"
	case api.LoaderCSS, api.LoaderLocalCSS, api.LoaderGlobalCSS:
		return "css"
	case api.LoaderDefault:
		return "raw source"
	}
	return "binary"
}

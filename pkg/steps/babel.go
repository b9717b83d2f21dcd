package steps

import (
	"context"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/arthur-debert/bundl/pkg/rules"
)

// babel hands scripts to the bundling engine with the parser that matches
// their extension. Plain .js files are parsed as JSX unless jsx=false.
func babel(_ context.Context, _ *Runner, opts rules.Options, a *Artifact) error {
	switch a.Ext() {
	case "js", "mjs", "cjs":
		if opts.GetBool("jsx", true) {
			a.Loader = api.LoaderJSX
		} else {
			a.Loader = api.LoaderJS
		}
	case "jsx":
		a.Loader = api.LoaderJSX
	case "ts", "mts", "cts":
		a.Loader = api.LoaderTS
	case "tsx":
		a.Loader = api.LoaderTSX
	default:
		return fmt.Errorf("cannot compile .%s files as scripts", a.Ext())
	}
	return nil
}

package bundl

import (
	"os"
	"strings"
	"text/template"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/bundl/pkg/style"
)

// initTemplateFormatting registers the usage template functions. Bold text
// follows --color, which is parsed by the time help is rendered.
func initTemplateFormatting(opts *globalOptions) {
	bold := func(s string) string {
		if opts.format(os.Stdout) != style.FormatTerminal {
			return s
		}
		return pterm.Bold.Sprint(s)
	}
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      bold,
		"upper":     strings.ToUpper,
		"boldUpper": func(s string) string { return bold(strings.ToUpper(s)) },
	})
}

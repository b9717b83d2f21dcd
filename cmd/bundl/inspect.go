package bundl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/rules"
	"github.com/arthur-debert/bundl/pkg/steps"
	"github.com/arthur-debert/bundl/pkg/style"
)

func loadRules(opts *globalOptions) (*config.Config, *rules.Ruleset, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, nil, err
	}
	rs, err := rules.FromConfig(cfg, steps.Known)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rs, nil
}

func newDispatchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "dispatch [paths...]",
		Short:   MsgDispatchShort,
		Long:    MsgDispatchLong,
		Example: MsgDispatchExample,
		GroupID: "inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rs, err := loadRules(opts)
			if err != nil {
				return err
			}
			markup := style.NewMarkupParser(opts.format(os.Stdout) != style.FormatTerminal)
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				var failed []error
				for _, p := range args {
					sel, err := rs.Dispatch(p)
					if err != nil {
						failed = append(failed, err)
						fmt.Fprintln(out, markup.Render(fmt.Sprintf("[path]%s[/path]  [error]unhandled[/error]", p)))
						continue
					}
					printSelection(out, markup, sel)
				}
				if len(failed) > 0 {
					return errors.Wrapf(failed[0], errors.ErrUnhandledFileType, MsgErrUnhandled, len(failed))
				}
				return nil
			}

			root := cfg.Context
			if root == "" {
				root = "."
			}
			matches, err := sourceScanner(cfg, rs).Scan(root)
			if err != nil {
				return err
			}
			unhandled := rules.Unhandled(matches)
			if len(unhandled) == 0 {
				fmt.Fprintln(out, markup.Render(fmt.Sprintf("[success]"+MsgAllHandled+"[/success]", len(matches))))
				return nil
			}
			for _, m := range unhandled {
				fmt.Fprintln(out, markup.Render(fmt.Sprintf("[path]%s[/path]  [error]unhandled[/error]", m.Path)))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, markup.Render(fmt.Sprintf("[warning]"+MsgUnhandledFound+"[/warning]", len(unhandled))))
			return reportedError{err: errors.Newf(errors.ErrUnhandledFileType, MsgErrUnhandled, len(unhandled))}
		},
	}
}

// sourceScanner scans the context for source files. The output and static
// directories are skipped and, at the top level, only entry files are
// dispatched.
func sourceScanner(cfg *config.Config, rs *rules.Ruleset) *rules.Scanner {
	var roots []string
	for _, files := range cfg.Entry {
		for _, f := range files {
			if rel, ok := contextRel(cfg, f); ok {
				roots = append(roots, rel)
			}
		}
	}
	var skip []string
	for _, dir := range []string{cfg.Output.Path, cfg.Copy.From} {
		if rel, ok := contextRel(cfg, dir); ok {
			skip = append(skip, rel)
		}
	}
	return rules.NewScanner(rs).Skip(skip...).RootFiles(roots...)
}

func contextRel(cfg *config.Config, p string) (string, bool) {
	if p == "" {
		return "", false
	}
	rel, err := filepath.Rel(cfg.Context, cfg.Abs(p))
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func printSelection(w io.Writer, markup *style.MarkupParser, sel rules.Selection) {
	fmt.Fprintln(w, markup.Render(fmt.Sprintf("[path]%s[/path]  [bold]%s[/bold]  [code]%s[/code]",
		sel.Path, sel.Rule.Name, sel.Pipeline.String())))
}

func newRulesCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   MsgRulesShort,
		Long:    MsgRulesLong,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rs, err := loadRules(opts)
			if err != nil {
				return err
			}
			if format == "table" || format == "" {
				md := rulesTable(rs)
				fmt.Fprint(cmd.OutOrStdout(), style.RenderMarkdown(md, opts.format(os.Stdout), 0))
				return nil
			}
			out, err := marshalRules(cfg.EffectiveRules(), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", MsgFlagRulesFormat)
	cmd.AddCommand(newCheckCmd(opts))
	return cmd
}

// rulesTable renders the ruleset as a markdown table.
func rulesTable(rs *rules.Ruleset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dispatch mode: **%s**\n\n", rs.Mode())
	b.WriteString("| # | Rule | Test | Exclude | Pipeline |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for i, r := range rs.Rules() {
		excludes := make([]string, 0, len(r.Exclude))
		for _, ex := range r.Exclude {
			excludes = append(excludes, cell(ex.Source()))
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1, r.Name, cell(r.Test.Source()), strings.Join(excludes, " "), strings.Join(r.Use.Loaders(), " → "))
	}
	return b.String()
}

func cell(s string) string {
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}

func marshalRules(decls []config.Rule, format string) ([]byte, error) {
	doc := struct {
		Rules []config.Rule `toml:"rules" yaml:"rules" json:"rules"`
	}{Rules: decls}

	var (
		out []byte
		err error
	)
	switch format {
	case "toml":
		out, err = toml.Marshal(doc)
	case "yaml", "yml":
		out, err = yaml.Marshal(doc)
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
		out = append(out, '\n')
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to render rules as %s", format)
	}
	return out, nil
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: MsgCheckShort,
		Long:  MsgCheckLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rs, err := loadRules(opts)
			if err != nil {
				return err
			}
			markup := style.NewMarkupParser(opts.format(os.Stdout) != style.FormatTerminal)
			out := cmd.OutOrStdout()

			conflicts := rs.Check()
			if len(conflicts) == 0 {
				fmt.Fprintln(out, markup.Render("[success]"+MsgNoConflicts+"[/success]"))
				return nil
			}
			for _, c := range conflicts {
				fmt.Fprintln(out, markup.Render(fmt.Sprintf("[path]%s[/path]  %s", c.Path, c.Reason)))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, markup.Render(fmt.Sprintf("[warning]"+MsgConflictsFound+"[/warning]", len(conflicts))))

			if strict || cfg.Strict {
				return reportedError{err: errors.Newf(errors.ErrConfigValid, MsgErrConflicts, len(conflicts))}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, MsgFlagStrict)
	return cmd
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", MsgFlagFormat)
	return cmd
}

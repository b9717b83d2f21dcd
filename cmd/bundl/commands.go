package bundl

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/bundl/internal/version"
	"github.com/arthur-debert/bundl/pkg/cobrax/topics"
	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/style"
)

//go:embed topics
var topicFiles embed.FS

// globalOptions holds the persistent flags.
type globalOptions struct {
	verbosity   int
	configFile  string
	context     string
	mode        string
	color       string
	metricsFile string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	initTemplateFormatting(opts)

	rootCmd := &cobra.Command{
		Use:     "bundl",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Options{
				Verbosity: opts.verbosity,
				Color:     opts.format(os.Stderr) == style.FormatTerminal,
				Console:   cmd.ErrOrStderr(),
			})
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVarP(&opts.configFile, "config", "c", "", MsgFlagConfig)
	flags.StringVarP(&opts.context, "context", "C", "", MsgFlagContext)
	flags.StringVar(&opts.mode, "mode", "", MsgFlagMode)
	flags.StringVar(&opts.color, "color", "auto", MsgFlagColor)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "INSPECT:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newBuildCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newDispatchCmd(opts))
	rootCmd.AddCommand(newRulesCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	tm, err := topics.Load(topicFiles, "topics", topics.Options{
		Extensions: []string{".md"},
		Renderer:   topics.MarkdownRenderer{Format: style.DetectFormat(os.Stdout), Width: 80},
	})
	if err == nil {
		topics.Install(rootCmd, tm)
	} else {
		log.Debug().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// load reads the layered configuration with the command line overrides.
func (o *globalOptions) load() (*config.Config, error) {
	overrides := make(map[string]interface{})
	if o.mode != "" {
		overrides["mode"] = o.mode
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir: o.context,
		ConfigFile: o.configFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// format resolves --color for output written to f.
func (o *globalOptions) format(f *os.File) style.Format {
	format, err := style.ParseFormat(o.color)
	if err != nil {
		log.Warn().Str("color", o.color).Msg("Unknown color setting, using auto")
	}
	return format.Resolve(f)
}

// reportedError marks an error whose details were already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the user by the
// command that returned it.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

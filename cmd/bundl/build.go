package bundl

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/bundl/pkg/bundler"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/metrics"
	"github.com/arthur-debert/bundl/pkg/style"
)

// session is what build and watch share: the bundler, its progress display
// and the optional metrics sink.
type session struct {
	bundler  *bundler.Bundler
	progress *style.Progress
	format   style.Format
	out      io.Writer
	prom     *metrics.PrometheusRecorder
	metrics  string
}

func newSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}

	s := &session{
		format:  opts.format(os.Stderr),
		out:     cmd.OutOrStdout(),
		metrics: opts.metricsFile,
	}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if s.metrics != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		recorder = s.prom
	}

	s.bundler, err = bundler.New(cfg, nil, bundler.Options{Recorder: recorder})
	if err != nil {
		return nil, err
	}
	s.progress = style.NewProgress(cmd.ErrOrStderr(), s.format == style.FormatTerminal)
	return s, nil
}

func (s *session) close() {
	_ = s.bundler.Close()
}

// report prints the outcome of one build and flushes metrics.
func (s *session) report(res *bundler.Result, err error, done string) error {
	logger := logging.GetLogger("cmd.build")
	if res != nil {
		logger = logging.WithBuild(logger, res.ID)
	}
	if s.prom != nil {
		if werr := s.prom.WriteTextfile(s.metrics); werr != nil {
			logger.Warn().Err(werr).Str("path", s.metrics).Msg("Failed to write metrics")
		} else {
			logger.Debug().Str("path", s.metrics).Msg("Metrics written")
		}
	}

	if err != nil {
		if res != nil && len(res.Errors) > 0 {
			s.progress.Fail(res.Errors...)
		} else {
			s.progress.Fail(err)
		}
		return reportedError{err: err}
	}

	s.progress.Warn(res.Warnings)
	s.progress.Success(fmt.Sprintf(done, res.Duration.Round(time.Millisecond)))
	printOutputs(s.out, res, s.format)
	return nil
}

func newBuildCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Short:   MsgBuildShort,
		Long:    MsgBuildLong,
		Example: MsgBuildExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			s.progress.Start(MsgBuilding)
			res, err := s.bundler.Build(cmd.Context())
			return s.report(res, err, MsgBuildDone)
		},
	}
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", MsgFlagMetricsFile)
	return cmd
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgWatchLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), MsgWatching+"\n", s.bundler.Config().Context)
			first := true
			s.progress.Start(MsgBuilding)
			return s.bundler.Watch(ctx, func(res *bundler.Result, err error) {
				done := MsgRebuildDone
				if first {
					done = MsgBuildDone
					first = false
				}
				// A failed build does not end watch mode.
				_ = s.report(res, err, done)
				if ctx.Err() == nil {
					s.progress.Start(MsgBuilding)
				}
			})
		},
	}
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", MsgFlagMetricsFile)
	return cmd
}

// printOutputs lists the files a build wrote, webpack stats style.
func printOutputs(w io.Writer, res *bundler.Result, format style.Format) {
	width := 0
	for _, out := range res.Outputs {
		width = max(width, len(out.Name))
	}
	for _, name := range res.Assets {
		width = max(width, len(name))
	}

	line := func(name, kind string, size int) {
		label := fmt.Sprintf("%-6s", kind)
		if format == style.FormatTerminal {
			label = style.KindStyle(kind).Render(label)
		}
		if size >= 0 {
			fmt.Fprintf(w, "  %-*s  %s  %s\n", width, name, label, humanBytes(size))
			return
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, name, label)
	}

	for _, out := range res.Outputs {
		line(out.Name, out.Kind, out.Bytes)
	}
	for _, name := range res.Assets {
		line(name, "asset", -1)
	}
	if res.HTML != "" {
		line(res.HTML, "html", -1)
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d bytes", n)
}
